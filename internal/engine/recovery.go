package engine

import (
	"fmt"
	"math"

	"github.com/strataspect/borelog/internal/depth"
	"github.com/strataspect/borelog/internal/extract"
	"github.com/strataspect/borelog/internal/validation"
)

// interpolateMissing fills a failed depth that still carries a material
// label, taking the midpoint of its two clean neighbors. Fires only when
// the midpoint actually falls between the neighbors, so it cannot create
// a new sequence inversion. Returns the number of points filled.
func interpolateMissing(items []depth.BatchItem, materials []string) int {
	filled := 0
	for i := 1; i < len(items)-1; i++ {
		if items[i].Success || materials[i] == "" {
			continue
		}
		lo, hi := items[i-1], items[i+1]
		if !lo.Success || !hi.Success {
			continue
		}
		mid := math.Round((lo.NormalizedDepth+hi.NormalizedDepth)/2*100) / 100
		if mid <= math.Min(lo.NormalizedDepth, hi.NormalizedDepth) ||
			mid >= math.Max(lo.NormalizedDepth, hi.NormalizedDepth) {
			continue
		}
		items[i].Success = true
		items[i].NormalizedDepth = mid
		items[i].Errors = nil
		filled++
	}
	return filled
}

// repairSequence applies automated recovery for specific validation
// findings: flip a majority-decreasing sequence, drop duplicate depths,
// and discard outlier points. Returns one message per repair performed;
// the caller re-validates afterwards.
func repairSequence(raw *extract.RawExtraction, vres validation.Result) []string {
	if vres.Valid && len(vres.Warnings) == 0 {
		return nil
	}
	var repairs []string

	if flipped := flipDescending(raw); flipped {
		repairs = append(repairs, "depth sequence was recorded bottom-up; reversed to top-down")
	}

	if dropped := dropDuplicates(raw); dropped > 0 {
		repairs = append(repairs, fmt.Sprintf("removed %d duplicate depth value(s)", dropped))
	}

	if dropped := dropOutliers(raw); dropped > 0 {
		repairs = append(repairs, fmt.Sprintf("discarded %d outlier depth value(s)", dropped))
	}

	return repairs
}

// flipDescending reverses the point order when strictly-decreasing steps
// dominate, which happens when a chart lists depths from the bottom of
// the bore upward.
func flipDescending(raw *extract.RawExtraction) bool {
	if raw.Len() < 2 {
		return false
	}
	increasing, decreasing := 0, 0
	for i := 1; i < raw.Len(); i++ {
		switch {
		case raw.Depths[i] > raw.Depths[i-1]:
			increasing++
		case raw.Depths[i] < raw.Depths[i-1]:
			decreasing++
		}
	}
	if decreasing <= increasing {
		return false
	}
	for i, j := 0, raw.Len()-1; i < j; i, j = i+1, j-1 {
		raw.Depths[i], raw.Depths[j] = raw.Depths[j], raw.Depths[i]
		raw.Materials[i], raw.Materials[j] = raw.Materials[j], raw.Materials[i]
		raw.Colors[i], raw.Colors[j] = raw.Colors[j], raw.Colors[i]
	}
	return true
}

// dropDuplicates keeps the first occurrence of each depth. A duplicate
// with a material label wins over an earlier unlabeled point.
func dropDuplicates(raw *extract.RawExtraction) int {
	seen := make(map[float64]int)
	kept := &extract.RawExtraction{}
	dropped := 0
	for i, d := range raw.Depths {
		if j, ok := seen[d]; ok {
			if kept.Materials[j] == "" && raw.Materials[i] != "" {
				kept.Materials[j] = raw.Materials[i]
			}
			dropped++
			continue
		}
		seen[d] = kept.Len()
		kept.Append(d, raw.Materials[i], raw.Colors[i])
	}
	if dropped > 0 {
		raw.Depths, raw.Materials, raw.Colors = kept.Depths, kept.Materials, kept.Colors
	}
	return dropped
}

// dropOutliers removes points that open an interval larger than three
// times the mean; a stray page number picked up as a depth shows up this
// way. Requires enough points to estimate a meaningful mean.
func dropOutliers(raw *extract.RawExtraction) int {
	if raw.Len() < 4 {
		return 0
	}

	var total float64
	for i := 1; i < raw.Len(); i++ {
		total += math.Abs(raw.Depths[i] - raw.Depths[i-1])
	}
	mean := total / float64(raw.Len()-1)
	if mean == 0 {
		return 0
	}

	kept := &extract.RawExtraction{}
	dropped := 0
	prev := raw.Depths[0]
	kept.Append(raw.Depths[0], raw.Materials[0], raw.Colors[0])
	for i := 1; i < raw.Len(); i++ {
		if math.Abs(raw.Depths[i]-prev) > 3*mean {
			dropped++
			continue
		}
		kept.Append(raw.Depths[i], raw.Materials[i], raw.Colors[i])
		prev = raw.Depths[i]
	}
	if dropped > 0 && kept.Len() >= 2 {
		raw.Depths, raw.Materials, raw.Colors = kept.Depths, kept.Materials, kept.Colors
		return dropped
	}
	return 0
}
