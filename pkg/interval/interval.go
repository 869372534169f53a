// Package interval merges raw activity records into maximal uptime intervals.
package interval

import (
	"slices"
	"time"
)

// Record is one observed active period, as read from a report row.
type Record struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Row   int       `json:"row,omitempty"` // 1-based source row, 0 when unknown
}

// Interval is a merged, maximal span covering one or more records.
type Interval struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Records int       `json:"records"`
}

// Duration returns the elapsed time of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Hours returns the duration in fractional hours.
func (iv Interval) Hours() float64 {
	return iv.Duration().Seconds() / 3600
}

// Contains reports whether the record's span lies within the interval (inclusive).
func (iv Interval) Contains(r Record) bool {
	return !r.Start.Before(iv.Start) && !r.End.After(iv.End)
}

// Record returns the interval as a record so it can be merged again.
func (iv Interval) Record() Record {
	return Record{Start: iv.Start, End: iv.End}
}

// Inverted reports whether the record ends before it starts.
func Inverted(r Record) bool {
	return r.End.Before(r.Start)
}

// sweep is the explicit state carried through the merge fold.
type sweep struct {
	current *Interval
	closed  []Interval
}

// fold is a left fold over xs.
func fold[T, A any](xs []T, acc A, step func(A, T) A) A {
	for _, x := range xs {
		acc = step(acc, x)
	}
	return acc
}

// mergeStep extends the current interval with r, or closes it and opens a new one.
// Touching spans (r.Start == current.End) merge.
func mergeStep(s sweep, r Record) sweep {
	switch {
	case s.current == nil:
		s.current = &Interval{Start: r.Start, End: r.End, Records: 1}
	case !r.Start.After(s.current.End):
		if r.End.After(s.current.End) {
			s.current.End = r.End
		}
		s.current.Records++
	default:
		s.closed = append(s.closed, *s.current)
		s.current = &Interval{Start: r.Start, End: r.End, Records: 1}
	}
	return s
}

// sortByStart returns a copy of records stably sorted by start time.
func sortByStart(records []Record) []Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return a.Start.Compare(b.Start)
	})
	return sorted
}

// Merge sorts records by start time and folds them into maximal intervals.
// The result is strictly ordered by start, and no two intervals overlap or touch.
// Every record is contained in exactly one interval. The input is not modified.
//
// Inverted records are not rejected here; see ApplyPolicy.
func Merge(records []Record) []Interval {
	if len(records) == 0 {
		return nil
	}

	s := fold(sortByStart(records), sweep{}, mergeStep)
	if s.current != nil {
		s.closed = append(s.closed, *s.current)
	}
	return s.closed
}

// MergeIntervals re-merges intervals, summing their record counts.
// Merging an already merged sequence returns it unchanged.
func MergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}

	sorted := slices.Clone(ivs)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start.After(cur.End) {
			out = append(out, cur)
			cur = iv
			continue
		}
		if iv.End.After(cur.End) {
			cur.End = iv.End
		}
		cur.Records += iv.Records
	}
	return append(out, cur)
}

// Span returns the earliest start and latest end across ivs.
// ok is false when ivs is empty.
func Span(ivs []Interval) (start, end time.Time, ok bool) {
	if len(ivs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = ivs[0].Start, ivs[0].End
	for _, iv := range ivs[1:] {
		if iv.Start.Before(start) {
			start = iv.Start
		}
		if iv.End.After(end) {
			end = iv.End
		}
	}
	return start, end, true
}
