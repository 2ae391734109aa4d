package validation

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/strataspect/borelog/internal/entity"
)

const (
	// boundaryTolerance is the largest gap (ft) tolerated between
	// consecutive layers before a warning is raised.
	boundaryTolerance = 0.1
	// directionMinority flags a sequence when steps in the minority
	// direction exceed this fraction of steps in the majority direction.
	directionMinority = 0.2
	// outlierFactor flags an interval larger than this multiple of the mean.
	outlierFactor = 3.0
	// intervalConformance is the fraction of intervals that must sit within
	// intervalSpread of the modal interval for a sequence to be consistent.
	intervalConformance = 0.8
	intervalSpread      = 0.1
)

// Result is a structured validation outcome. Validation never fails hard;
// it always returns findings so the coordinator can produce a result.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// IntervalConsistency reports whether depth sampling follows a regular grid.
type IntervalConsistency struct {
	Consistent    bool    `json:"consistent"`
	ModalInterval float64 `json:"modal_interval"`
	Conformance   float64 `json:"conformance"`
}

// Service checks depth-sequence health and layer-boundary health
// independent of source format.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ValidateDepthSequence checks an ordered depth set for emptiness,
// negatives, direction changes, duplicates and outlier gaps.
func (s *Service) ValidateDepthSequence(depths []float64) Result {
	res := Result{Valid: true}

	if len(depths) == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "No depth values found")
		return res
	}

	numeric := 0
	for _, d := range depths {
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			numeric++
		}
	}
	if numeric == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "No depth values found: sequence contains no numeric entries")
		return res
	}

	for i, d := range depths {
		if d < 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d: negative depth %.2f", i, d))
		}
	}

	// Majority-direction check: count strictly increasing vs strictly
	// decreasing steps; both directions being present beyond the minority
	// threshold means the sequence direction is inconsistent.
	increasing, decreasing := 0, 0
	for i := 1; i < len(depths); i++ {
		switch {
		case depths[i] > depths[i-1]:
			increasing++
		case depths[i] < depths[i-1]:
			decreasing++
		}
	}
	minority := math.Min(float64(increasing), float64(decreasing))
	majority := math.Max(float64(increasing), float64(decreasing))
	if majority > 0 && minority/majority > directionMinority {
		res.Warnings = append(res.Warnings, fmt.Sprintf("inconsistent depth direction: %d increasing vs %d decreasing steps", increasing, decreasing))
	}

	seen := make(map[float64]int)
	for i, d := range depths {
		if prev, ok := seen[d]; ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d: duplicate depth %.2f (first seen at item %d)", i, d, prev))
		} else {
			seen[d] = i
		}
	}

	if len(depths) > 2 {
		var total float64
		intervals := make([]float64, 0, len(depths)-1)
		for i := 1; i < len(depths); i++ {
			iv := math.Abs(depths[i] - depths[i-1])
			intervals = append(intervals, iv)
			total += iv
		}
		mean := total / float64(len(intervals))
		if mean > 0 {
			for i, iv := range intervals {
				if iv > outlierFactor*mean {
					res.Warnings = append(res.Warnings, fmt.Sprintf("item %d: interval %.2f exceeds %.0fx the mean interval %.2f", i+1, iv, outlierFactor, mean))
				}
			}
		}
	}

	return res
}

// CheckDepthIntervalConsistency computes the modal interval (rounded to
// one decimal) and flags the sequence inconsistent when fewer than 80% of
// intervals fall within 10% of the mode.
func (s *Service) CheckDepthIntervalConsistency(depths []float64) IntervalConsistency {
	if len(depths) < 3 {
		return IntervalConsistency{Consistent: true}
	}

	counts := make(map[float64]int)
	intervals := make([]float64, 0, len(depths)-1)
	for i := 1; i < len(depths); i++ {
		iv := math.Abs(depths[i] - depths[i-1])
		intervals = append(intervals, iv)
		counts[math.Round(iv*10)/10]++
	}

	var mode float64
	best := 0
	for iv, c := range counts {
		if c > best || (c == best && iv < mode) {
			best = c
			mode = iv
		}
	}

	if mode == 0 {
		return IntervalConsistency{Consistent: false, ModalInterval: 0}
	}

	conforming := 0
	for _, iv := range intervals {
		if math.Abs(iv-mode) <= intervalSpread*mode {
			conforming++
		}
	}
	conformance := float64(conforming) / float64(len(intervals))

	return IntervalConsistency{
		Consistent:    conformance >= intervalConformance,
		ModalInterval: mode,
		Conformance:   conformance,
	}
}

// ValidateLayerBoundaries sorts layers by start depth and checks for
// inversions, overlaps and oversized gaps between consecutive layers.
func (s *Service) ValidateLayerBoundaries(layers []entity.ExtractedLayer) Result {
	res := Result{Valid: true}
	if len(layers) == 0 {
		return res
	}

	sorted := make([]entity.ExtractedLayer, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartDepth < sorted[j].StartDepth })

	for i, l := range sorted {
		if l.StartDepth > l.EndDepth {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("layer %d (%s): inverted boundaries %.2f > %.2f", i, l.Material, l.StartDepth, l.EndDepth))
		}
	}

	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].StartDepth - sorted[i-1].EndDepth
		switch {
		case delta < 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("layer %d (%s) overlaps layer %d (%s) by %.2f ft", i, sorted[i].Material, i-1, sorted[i-1].Material, -delta))
		case delta > boundaryTolerance:
			res.Warnings = append(res.Warnings, fmt.Sprintf("gap of %.2f ft between layer %d (%s) and layer %d (%s)", delta, i-1, sorted[i-1].Material, i, sorted[i].Material))
		}
	}

	return res
}
