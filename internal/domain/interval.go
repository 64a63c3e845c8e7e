package domain

import (
	"sort"
	"time"
)

// Interval is a half-open span [Start, End) of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds [start, end) with both ends normalised to UTC.
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Duration is End minus Start; it is negative for an inverted interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether a and b share any instant. Touching endpoints do
// not overlap, so back-to-back bookings are legal.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Interval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// Subtract removes cut from base and returns what is left, in order.
func Subtract(base, cut Interval) []Interval {
	if !base.Valid() {
		return nil
	}
	if !Overlaps(base, cut) {
		return []Interval{base}
	}
	out := make([]Interval, 0, 2)
	if base.Start.Before(cut.Start) {
		out = append(out, Interval{Start: base.Start, End: cut.Start})
	}
	if cut.End.Before(base.End) {
		out = append(out, Interval{Start: cut.End, End: base.End})
	}
	return out
}

// SubtractAll removes cut from every interval of set.
func SubtractAll(set []Interval, cut Interval) []Interval {
	out := make([]Interval, 0, len(set)+1)
	for _, i := range set {
		out = append(out, Subtract(i, cut)...)
	}
	return out
}

// Merge sorts by start and coalesces overlapping or adjacent intervals into a
// minimal disjoint sequence. Empty intervals are dropped.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(list))
	for _, i := range list {
		if i.Valid() {
			sorted = append(sorted, i)
		}
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Start.Equal(sorted[b].Start) {
			return sorted[a].End.Before(sorted[b].End)
		}
		return sorted[a].Start.Before(sorted[b].Start)
	})

	out := make([]Interval, 0, len(sorted))
	for _, i := range sorted {
		if n := len(out); n > 0 && !i.Start.After(out[n-1].End) {
			if i.End.After(out[n-1].End) {
				out[n-1].End = i.End
			}
			continue
		}
		out = append(out, i)
	}
	return out
}

// Clamp trims i to bounds. The result may be invalid when they do not overlap.
func Clamp(i, bounds Interval) Interval {
	if i.Start.Before(bounds.Start) {
		i.Start = bounds.Start
	}
	if i.End.After(bounds.End) {
		i.End = bounds.End
	}
	return i
}

// Covered reports whether inner fits entirely inside one interval of set.
func Covered(set []Interval, inner Interval) bool {
	for _, i := range set {
		if Contains(i, inner) {
			return true
		}
	}
	return false
}

// OverlapsAny reports whether inner overlaps any interval of set.
func OverlapsAny(set []Interval, inner Interval) bool {
	for _, i := range set {
		if Overlaps(i, inner) {
			return true
		}
	}
	return false
}
