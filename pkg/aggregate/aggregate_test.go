package aggregate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/google/go-cmp/cmp"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func span(startH, startM, endH, endM int) interval.Interval {
	return interval.Interval{
		Start: day.Add(time.Duration(startH)*time.Hour + time.Duration(startM)*time.Minute),
		End:   day.Add(time.Duration(endH)*time.Hour + time.Duration(endM)*time.Minute),
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		ivs  []interval.Interval
		want Summary
	}{
		{
			name: "two intervals",
			ivs:  []interval.Interval{span(10, 0, 13, 0), span(15, 0, 16, 0)},
			want: Summary{Count: 2, Sum: 4, Mean: 2, Max: 3},
		},
		{
			name: "single half hour",
			ivs:  []interval.Interval{span(8, 0, 8, 30)},
			want: Summary{Count: 1, Sum: 0.5, Mean: 0.5, Max: 0.5},
		},
		{
			name: "zero length",
			ivs:  []interval.Interval{span(8, 0, 8, 0)},
			want: Summary{Count: 1},
		},
		{
			name: "negative duration is counted as is",
			ivs:  []interval.Interval{span(12, 0, 10, 0), span(13, 0, 14, 0)},
			want: Summary{Count: 2, Sum: -1, Mean: -0.5, Max: 1},
		},
		{
			name: "all negative keeps the largest",
			ivs:  []interval.Interval{span(12, 0, 10, 0), span(14, 0, 13, 0)},
			want: Summary{Count: 2, Sum: -3, Mean: -1.5, Max: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.ivs)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	for _, ivs := range [][]interval.Interval{nil, {}} {
		_, err := Summarize(ivs)
		if !errors.Is(err, ErrEmptyAggregate) {
			t.Errorf("Summarize(%v) error = %v, want ErrEmptyAggregate", ivs, err)
		}
	}
}

func TestMergeThenSummarize(t *testing.T) {
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }
	records := []interval.Record{
		{Start: at(10), End: at(12)},
		{Start: at(11), End: at(13)},
		{Start: at(15), End: at(16)},
	}

	merged := interval.Merge(records)
	if diff := cmp.Diff([]float64{3, 1}, Durations(merged)); diff != "" {
		t.Errorf("Durations() mismatch (-want +got):\n%s", diff)
	}

	got, err := Summarize(merged)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	want := Summary{Count: 2, Sum: 4, Mean: 2, Max: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestDurationsEmpty(t *testing.T) {
	if got := Durations(nil); len(got) != 0 {
		t.Errorf("Durations(nil) = %v, want empty", got)
	}
}

func TestRound(t *testing.T) {
	s := Summary{Count: 3, Sum: 10.0 / 3, Mean: 10.0 / 9, Max: 2.675}
	got := s.Round(2)

	want := Summary{Count: 3, Sum: 3.33, Mean: 1.11, Max: 2.68}
	opt := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Round(2) mismatch (-want +got):\n%s", diff)
	}
}
