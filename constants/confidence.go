package constants

// Confidence is the qualitative trust bucket assigned to a layer or an
// overall extraction.
type Confidence string

// Stable values (serialized as-is).
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source identifies which pipeline produced a layer.
type Source string

const (
	SourceExcelImport Source = "excel-import"
	SourcePDFImport   Source = "pdf-import"
	SourceFallback    Source = "fallback"
)

// SourceForFormat maps a source format to the layer source enum.
func SourceForFormat(format string) Source {
	switch format {
	case EXCEL:
		return SourceExcelImport
	case PDF:
		return SourcePDFImport
	default:
		return SourceFallback
	}
}
