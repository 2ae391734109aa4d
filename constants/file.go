package constants

import "strings"

// FileTypes holds the allowed source formats for the format field in ExtractionJob.
var FileTypes = []string{"EXCEL", "PDF"}

const (
	EXCEL = "EXCEL"
	PDF   = "PDF"
)

// ExcelExtensions and PDFExtensions are the recognized file extensions
// per source format (lowercase, without '.').
var (
	ExcelExtensions = []string{"xlsx", "xls", "csv"}
	PDFExtensions   = []string{"pdf"}
)

// AllowedExtensions holds the default allowed file extensions for strata chart ingestion.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {},
	"xls":  {},
	"csv":  {},
	"pdf":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a file extension to its source format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "xlsx", "xls", "csv":
		return EXCEL
	case "pdf":
		return PDF
	default:
		return ""
	}
}

// SupportedFileTypes returns the extension lists grouped by format,
// keyed the way external callers expect ("excel", "pdf").
func SupportedFileTypes() map[string][]string {
	return map[string][]string{
		"excel": append([]string(nil), ExcelExtensions...),
		"pdf":   append([]string(nil), PDFExtensions...),
	}
}
