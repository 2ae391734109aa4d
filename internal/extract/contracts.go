package extract

import (
	"context"
	"sort"

	"github.com/strataspect/borelog/internal/classify"
)

// SignalKind states which signals one raw point carries, replacing the
// implicit has-text/has-color boolean pair.
type SignalKind int

const (
	SignalNeither SignalKind = iota
	SignalTextOnly
	SignalColorOnly
	SignalBoth
)

func (k SignalKind) String() string {
	switch k {
	case SignalTextOnly:
		return "text-only"
	case SignalColorOnly:
		return "color-only"
	case SignalBoth:
		return "both"
	default:
		return "neither"
	}
}

// SignalPoint is one detected (depth, material?, color?) tuple prior to
// layer segmentation. Empty Material/Color means the signal is absent.
type SignalPoint struct {
	Depth    float64
	Material string
	Color    string
}

// Kind derives the signal completeness of the point.
func (p SignalPoint) Kind() SignalKind {
	switch {
	case p.Material != "" && p.Color != "":
		return SignalBoth
	case p.Material != "":
		return SignalTextOnly
	case p.Color != "":
		return SignalColorOnly
	default:
		return SignalNeither
	}
}

// RawExtraction is the parser output: index-aligned parallel sequences of
// depths, material labels and color signals, plus a depth unit hint and
// structure diagnostics used by the confidence scorer.
type RawExtraction struct {
	Depths    []float64
	Materials []string
	Colors    []string
	DepthUnit string

	SourceType string // constants.EXCEL | constants.PDF
	Method     string // which parse strategy produced this

	// Structure signals for confidence scoring.
	MappedColumns int // tabular sources: header columns mapped
	TextVolume    int // positional sources: characters of text extracted

	Warnings []string
}

// Append adds one signal point keeping the parallel sequences aligned.
func (r *RawExtraction) Append(depth float64, material, color string) {
	r.Depths = append(r.Depths, depth)
	r.Materials = append(r.Materials, material)
	r.Colors = append(r.Colors, color)
}

// Len returns the number of signal points.
func (r *RawExtraction) Len() int {
	return len(r.Depths)
}

// Points returns the signal points sorted by depth.
func (r *RawExtraction) Points() []SignalPoint {
	pts := make([]SignalPoint, 0, len(r.Depths))
	for i, d := range r.Depths {
		pts = append(pts, SignalPoint{Depth: d, Material: r.Materials[i], Color: r.Colors[i]})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Depth < pts[j].Depth })
	return pts
}

// MaterialCount returns how many points carry a material label.
func (r *RawExtraction) MaterialCount() int {
	n := 0
	for _, m := range r.Materials {
		if m != "" {
			n++
		}
	}
	return n
}

// ColorCount returns how many points carry a color signal.
func (r *RawExtraction) ColorCount() int {
	n := 0
	for _, c := range r.Colors {
		if c != "" {
			n++
		}
	}
	return n
}

// CheckReadability is the pre-flight test that a parsed document contains
// enough signal to proceed at all. The three failures are distinct fatal
// conditions so the classifier and fallback manager can react differently.
func (r *RawExtraction) CheckReadability() error {
	if r.TextVolume == 0 && r.Len() == 0 {
		return classify.Tagged(classify.TagNoText, "document contains no readable text content")
	}
	if r.Len() == 0 {
		return classify.Tagged(classify.TagNoDepths, "no depth values found in document")
	}
	if r.MaterialCount() == 0 && r.ColorCount() == 0 {
		return classify.Tagged(classify.TagNoMaterials, "no material labels found in document")
	}
	return nil
}

// FormatParser extracts raw signals from one document format.
type FormatParser interface {
	Parse(ctx context.Context, path string) (*RawExtraction, error)
}

// ParseStrategy is one entry in the ordered retry chain the coordinator
// iterates generically: primary first, then alternates.
type ParseStrategy struct {
	Name    string
	Attempt func(ctx context.Context, path string) (*RawExtraction, error)
}
