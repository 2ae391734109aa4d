package entity

import (
	"strings"

	"github.com/strataspect/borelog/constants"
)

// ExtractedLayer is one depth interval assigned a single material
// classification. Depths are always in feet. Layers from one extraction
// form a depth-ordered sequence; adjacent layers share a boundary
// (gaps/overlaps are validation findings, not structural violations).
type ExtractedLayer struct {
	Material      string               `json:"material"`
	StartDepth    float64              `json:"start_depth"`
	EndDepth      float64              `json:"end_depth"`
	Confidence    constants.Confidence `json:"confidence"`
	Source        constants.Source     `json:"source"`
	OriginalColor string               `json:"original_color,omitempty"`
	UserEdited    bool                 `json:"user_edited"`
}

// Thickness returns the layer's vertical extent in feet.
func (l ExtractedLayer) Thickness() float64 {
	return l.EndDepth - l.StartDepth
}

// Valid reports whether the layer satisfies its structural invariants:
// start before end and a non-empty material after trimming.
func (l ExtractedLayer) Valid() bool {
	return l.StartDepth < l.EndDepth && strings.TrimSpace(l.Material) != ""
}
