// Package aggregate summarizes merged interval durations.
package aggregate

import (
	"errors"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/shopspring/decimal"
)

// ErrEmptyAggregate is returned when there are no intervals to summarize:
// the mean and maximum of an empty set are undefined.
var ErrEmptyAggregate = errors.New("no intervals to aggregate")

// Summary holds duration statistics in hours.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum_hours"`
	Mean  float64 `json:"mean_hours"`
	Max   float64 `json:"max_hours"`
}

// Durations returns the duration of each interval in hours.
func Durations(ivs []interval.Interval) []float64 {
	hours := make([]float64, len(ivs))
	for i, iv := range ivs {
		hours[i] = iv.Hours()
	}
	return hours
}

// Summarize computes sum, mean and max of the interval durations.
func Summarize(ivs []interval.Interval) (Summary, error) {
	if len(ivs) == 0 {
		return Summary{}, ErrEmptyAggregate
	}

	// Sum in integer nanoseconds so the total is exact before the hours conversion.
	var total time.Duration
	longest := ivs[0].Duration()
	for _, iv := range ivs {
		d := iv.Duration()
		total += d
		if d > longest {
			longest = d
		}
	}

	sum := total.Seconds() / 3600
	return Summary{
		Count: len(ivs),
		Sum:   sum,
		Mean:  sum / float64(len(ivs)),
		Max:   longest.Seconds() / 3600,
	}, nil
}

// Round returns a copy with every statistic rounded to places decimals, half away from zero.
func (s Summary) Round(places int32) Summary {
	round := func(v float64) float64 {
		f, _ := decimal.NewFromFloat(v).Round(places).Float64()
		return f
	}
	return Summary{
		Count: s.Count,
		Sum:   round(s.Sum),
		Mean:  round(s.Mean),
		Max:   round(s.Max),
	}
}
