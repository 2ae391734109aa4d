package depth

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Range and rounding rules for normalized depths. Depths are canonical in feet.
const (
	MaxDepthFt         = 1000.0
	WarnDepthFt        = 500.0
	PrecisionTolerance = 0.001
	// GapThreshold is the largest gap (ft) tolerated between consecutive
	// depths before ValidateSequence flags it.
	GapThreshold = 0.1

	feetPerMeter = 3.28084
)

// UnitTable maps a unit token to its multiplier into feet. Tables are
// immutable configuration injected at construction, never package state.
type UnitTable map[string]float64

// DefaultUnits returns the built-in unit vocabulary.
func DefaultUnits() UnitTable {
	return UnitTable{
		"ft":     1,
		"feet":   1,
		"foot":   1,
		"'":      1,
		"m":      feetPerMeter,
		"meter":  feetPerMeter,
		"meters": feetPerMeter,
		"metre":  feetPerMeter,
		"metres": feetPerMeter,
	}
}

// Result is the outcome of normalizing one raw depth value.
type Result struct {
	Success         bool
	NormalizedDepth float64
	Errors          []string
	Warnings        []string
}

// BatchItem tags a Result with the original index so error messages stay
// traceable back to the source row.
type BatchItem struct {
	Index int
	Raw   any
	Result
}

// SequenceResult reports gap/overlap findings across an ordered depth set.
type SequenceResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Normalizer converts raw depth value/unit pairs into canonical feet.
type Normalizer struct {
	units  UnitTable
	logger *slog.Logger
}

func NewNormalizer(units UnitTable, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(units) == 0 {
		units = DefaultUnits()
	}
	return &Normalizer{units: units, logger: logger}
}

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// Normalize runs the full pipeline on one raw value. Each stage
// short-circuits on failure: coerce, resolve unit, convert, round,
// range-check, precision-check.
func (n *Normalizer) Normalize(raw any, rawUnit string) Result {
	res := Result{}

	value, err := coerce(raw)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	multiplier, warning := n.resolveUnit(rawUnit)
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	converted := value * multiplier
	rounded := math.Round(converted*100) / 100

	if rounded < 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("depth %.2f ft is below 0", rounded))
		return res
	}
	if rounded > MaxDepthFt {
		res.Errors = append(res.Errors, fmt.Sprintf("depth %.2f ft exceeds maximum of %.0f ft", rounded, MaxDepthFt))
		return res
	}
	if rounded > WarnDepthFt {
		res.Warnings = append(res.Warnings, fmt.Sprintf("depth %.2f ft exceeds %.0f ft, verify unit", rounded, WarnDepthFt))
	}

	if math.Abs(rounded-converted) > PrecisionTolerance {
		res.Warnings = append(res.Warnings, fmt.Sprintf("precision loss rounding %.6f to %.2f", converted, rounded))
	}

	res.Success = true
	res.NormalizedDepth = rounded
	return res
}

// NormalizeBatch applies Normalize across a set, tagging each item with
// its original index.
func (n *Normalizer) NormalizeBatch(raws []any, rawUnit string) []BatchItem {
	items := make([]BatchItem, 0, len(raws))
	for i, raw := range raws {
		r := n.Normalize(raw, rawUnit)
		for j, e := range r.Errors {
			r.Errors[j] = fmt.Sprintf("item %d: %s", i, e)
		}
		for j, w := range r.Warnings {
			r.Warnings[j] = fmt.Sprintf("item %d: %s", i, w)
		}
		items = append(items, BatchItem{Index: i, Raw: raw, Result: r})
	}
	return items
}

// Interval is one normalized depth span (a layer boundary pair).
type Interval struct {
	Start float64
	End   float64
}

// ValidateSequence checks an ordered set of intervals for gaps and
// overlaps between consecutive entries, tagging findings with the
// original index.
func (n *Normalizer) ValidateSequence(intervals []Interval) SequenceResult {
	res := SequenceResult{Valid: true}
	if len(intervals) == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "No depth values found in sequence")
		return res
	}
	for i := 1; i < len(intervals); i++ {
		delta := intervals[i].Start - intervals[i-1].End
		switch {
		case delta < 0:
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("item %d: interval starting at %.2f overlaps previous interval ending at %.2f", i, intervals[i].Start, intervals[i-1].End))
		case delta > GapThreshold:
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d: gap of %.2f ft from previous interval", i, delta))
		}
	}
	return res
}

// coerce turns a raw cell value into a float64, stripping any non-numeric
// characters except '.' and '-'. Rejects nil, NaN and non-numeric strings.
func coerce(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("depth value is missing")
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("depth value is not a number")
		}
		return v, nil
	case float32:
		return coerce(float64(v))
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		cleaned := nonNumericRe.ReplaceAllString(strings.TrimSpace(v), "")
		if cleaned == "" || cleaned == "-" || cleaned == "." {
			return 0, fmt.Errorf("depth value %q is not numeric", v)
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("depth value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("depth value of type %T is not numeric", raw)
	}
}

// resolveUnit finds the feet multiplier for a raw unit token: exact match
// first, then substring partial match, else default to feet with a warning.
func (n *Normalizer) resolveUnit(rawUnit string) (float64, string) {
	token := strings.ToLower(strings.TrimSpace(rawUnit))
	if token == "" {
		return 1, ""
	}
	if mult, ok := n.units[token]; ok {
		return mult, ""
	}
	// Partial match in a fixed order (longest token first) so resolution
	// stays deterministic regardless of map iteration.
	keys := make([]string, 0, len(n.units))
	for unit := range n.units {
		if unit != "'" {
			keys = append(keys, unit)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, unit := range keys {
		if strings.Contains(token, unit) || strings.Contains(unit, token) {
			return n.units[unit], ""
		}
	}
	return 1, fmt.Sprintf("unrecognized depth unit %q, defaulting to feet", rawUnit)
}
