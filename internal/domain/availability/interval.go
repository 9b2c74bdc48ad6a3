package availability

import (
	"fmt"
	"slices"
)

// Interval is a half-open range of wall-clock time [Start, End).
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewInterval validates that start precedes end.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() || start >= end {
		return Interval{}, fmt.Errorf("invalid interval %s-%s: start must be before end", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) Empty() bool { return iv.Start >= iv.End }

// Overlaps reports whether the two intervals share at least one minute.
// Touching intervals ([09:00,10:00) and [10:00,11:00)) do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

func (iv Interval) Contains(t TimeOfDay) bool { return t >= iv.Start && t < iv.End }

func (iv Interval) String() string { return iv.Start.String() + "-" + iv.End.String() }

// MergeIntervals returns the union of ivs as a sorted list of disjoint
// intervals. Overlapping and adjacent intervals are joined; empty ones are
// dropped. The input slice is not modified.
func MergeIntervals(ivs []Interval) []Interval {
	sorted := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortFunc(sorted, func(a, b Interval) int {
		if a.Start != b.Start {
			return int(a.Start - b.Start)
		}
		return int(a.End - b.End)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
