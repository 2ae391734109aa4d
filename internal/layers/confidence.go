package layers

import (
	"math"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
	"github.com/strataspect/borelog/internal/extract"
)

// Score weights and caps. The overall score is a weighted blend of field
// completeness, signal completeness, validation outcome and parser
// structure signals, minus a penalty scaled by error count.
const (
	baseScore            = 0.3
	completenessWeight   = 0.2
	signalWeight         = 0.2
	validationWeight     = 0.2
	validationPenaltyCap = 0.3
	structureCap         = 0.1
	errorPenaltyCap      = 0.2

	// structure signal scaling
	perMappedColumn = 0.025
	textVolumeFull  = 5000.0
)

// ScorerConfig carries the configurable level thresholds:
// low < min <= medium < high.
type ScorerConfig struct {
	MinThreshold  float64
	HighThreshold float64
}

// ScoreInput gathers everything the overall score depends on.
type ScoreInput struct {
	Layers           []entity.ExtractedLayer
	ValidationPassed bool
	ValidationErrors int
	TotalErrors      int
	SourceType       string
	MappedColumns    int
	TextVolume       int
}

// Scorer assigns per-layer and overall extraction confidence.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.MinThreshold <= 0 {
		cfg.MinThreshold = 0.5
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 0.8
	}
	return &Scorer{cfg: cfg}
}

// LayerConfidence buckets a single signal point: any material text is
// high, a bare color signal is medium, and low is reserved for
// placeholder layers carrying neither.
func (s *Scorer) LayerConfidence(kind extract.SignalKind) constants.Confidence {
	return layerConfidence(kind)
}

func layerConfidence(kind extract.SignalKind) constants.Confidence {
	switch kind {
	case extract.SignalBoth, extract.SignalTextOnly:
		return constants.ConfidenceHigh
	case extract.SignalColorOnly:
		return constants.ConfidenceMedium
	default:
		return constants.ConfidenceLow
	}
}

// ScoreExtraction computes the overall confidence for one extraction.
func (s *Scorer) ScoreExtraction(in ScoreInput) entity.ConfidenceReport {
	score := 0.0

	if len(in.Layers) > 0 {
		score += baseScore

		if allComplete(in.Layers) {
			score += completenessWeight
		}

		// Fraction of layers carrying both a material label and the
		// original color signal.
		both := 0
		for _, l := range in.Layers {
			if l.Material != "" && l.Material != "Unknown" && l.OriginalColor != "" {
				both++
			}
		}
		score += signalWeight * float64(both) / float64(len(in.Layers))
	}

	if in.ValidationPassed {
		score += validationWeight
	} else {
		score -= validationPenaltyCap * math.Min(1, float64(in.ValidationErrors)/5)
	}

	switch in.SourceType {
	case constants.EXCEL:
		score += math.Min(structureCap, perMappedColumn*float64(in.MappedColumns))
	case constants.PDF:
		score += math.Min(structureCap, structureCap*float64(in.TextVolume)/textVolumeFull)
	}

	score -= errorPenaltyCap * math.Min(1, float64(in.TotalErrors)/10)

	score = math.Max(0, math.Min(1, score))

	return entity.ConfidenceReport{Score: score, Level: s.Level(score)}
}

// Level buckets a score against the configured thresholds.
func (s *Scorer) Level(score float64) constants.Confidence {
	switch {
	case score >= s.cfg.HighThreshold:
		return constants.ConfidenceHigh
	case score >= s.cfg.MinThreshold:
		return constants.ConfidenceMedium
	default:
		return constants.ConfidenceLow
	}
}

func allComplete(ls []entity.ExtractedLayer) bool {
	for _, l := range ls {
		if !l.Valid() {
			return false
		}
	}
	return true
}
