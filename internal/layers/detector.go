package layers

import (
	"log/slog"
	"math"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
	"github.com/strataspect/borelog/internal/extract"
)

// DefaultLastThickness is the extent assumed for a single-layer extraction
// whose bottom cannot be derived from a previous layer.
// NOTE: extending the last layer by the previous layer's thickness (or this
// flat default) is a compatibility heuristic with no geological basis;
// revising it changes every historical extraction, so it is preserved as-is.
const DefaultLastThickness = 3.0

// Detector converts raw signal points into depth-ordered layer records via
// run-length segmentation over the ordered key stream. The same material
// recurring after an intervening different material yields separate layers.
type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// pointKey identifies a point for segmentation: material text when present,
// otherwise the color signal. Empty means the point carries no identity.
func pointKey(p extract.SignalPoint) string {
	if p.Material != "" {
		return p.Material
	}
	if p.Color != "" {
		return "color:" + p.Color
	}
	return ""
}

// Detect produces ordered layers from a raw extraction. Points without any
// identifying signal are dropped before segmentation; they cannot anchor a
// layer and would otherwise fabricate material records.
func (d *Detector) Detect(raw *extract.RawExtraction) []entity.ExtractedLayer {
	source := constants.SourceForFormat(raw.SourceType)

	var keyed []extract.SignalPoint
	for _, p := range raw.Points() {
		if pointKey(p) != "" {
			keyed = append(keyed, p)
		}
	}
	if len(keyed) == 0 {
		return nil
	}

	var result []entity.ExtractedLayer
	prevKey := ""
	for i, p := range keyed {
		key := pointKey(p)
		if key != prevKey {
			material := p.Material
			if material == "" {
				material = "Unknown"
			}
			result = append(result, entity.ExtractedLayer{
				Material:      material,
				StartDepth:    p.Depth,
				Confidence:    layerConfidence(p.Kind()),
				Source:        source,
				OriginalColor: p.Color,
			})
			prevKey = key
		}
		// The current layer always extends to the next point's depth.
		if i+1 < len(keyed) {
			result[len(result)-1].EndDepth = keyed[i+1].Depth
		}
	}

	extrapolateLast(result)
	return result
}

// DetectColorOnly segments by color signal alone, ignoring material text.
// Used as alternative detection when the primary key stream yields nothing.
func (d *Detector) DetectColorOnly(raw *extract.RawExtraction) []entity.ExtractedLayer {
	var keyed []extract.SignalPoint
	for _, p := range raw.Points() {
		if p.Color != "" {
			keyed = append(keyed, p)
		}
	}
	if len(keyed) == 0 {
		return nil
	}

	var result []entity.ExtractedLayer
	prevColor := ""
	for i, p := range keyed {
		if p.Color != prevColor {
			result = append(result, entity.ExtractedLayer{
				Material:      "Unknown",
				StartDepth:    p.Depth,
				Confidence:    constants.ConfidenceMedium,
				Source:        constants.SourceFallback,
				OriginalColor: p.Color,
			})
			prevColor = p.Color
		}
		if i+1 < len(keyed) {
			result[len(result)-1].EndDepth = keyed[i+1].Depth
		}
	}

	extrapolateLast(result)
	return result
}

// DetectByThickness slices the depth range into uniform placeholder layers
// when no point carries any identity. The result is only a scaffold for
// manual completion, so every layer is low confidence.
func (d *Detector) DetectByThickness(raw *extract.RawExtraction) []entity.ExtractedLayer {
	pts := raw.Points()
	if len(pts) < 2 {
		return nil
	}

	var result []entity.ExtractedLayer
	for i := 1; i < len(pts); i++ {
		if pts[i].Depth == pts[i-1].Depth {
			continue
		}
		result = append(result, entity.ExtractedLayer{
			Material:   "Unknown",
			StartDepth: pts[i-1].Depth,
			EndDepth:   pts[i].Depth,
			Confidence: constants.ConfidenceLow,
			Source:     constants.SourceFallback,
		})
	}
	return result
}

// extrapolateLast closes the final layer: extend by the previous layer's
// thickness, or by DefaultLastThickness when it is the only layer.
func extrapolateLast(result []entity.ExtractedLayer) {
	if len(result) == 0 {
		return
	}
	last := &result[len(result)-1]
	if last.EndDepth > last.StartDepth {
		return
	}
	if len(result) > 1 {
		prev := result[len(result)-2]
		thickness := prev.EndDepth - prev.StartDepth
		if thickness <= 0 {
			thickness = DefaultLastThickness
		}
		last.EndDepth = last.StartDepth + thickness
		return
	}
	last.EndDepth = last.StartDepth + DefaultLastThickness
}

// SpanOf returns the total depth range covered by the layers.
func SpanOf(result []entity.ExtractedLayer) (float64, float64) {
	if len(result) == 0 {
		return 0, 0
	}
	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, l := range result {
		minD = math.Min(minD, l.StartDepth)
		maxD = math.Max(maxD, l.EndDepth)
	}
	return minD, maxD
}
