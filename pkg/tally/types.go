package tally

import (
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/aggregate"
	"github.com/codeGROOVE-dev/uptally/pkg/interval"
)

// Option configures a Tallier.
type Option func(*OptionHolder)

// WithPolicy sets how records that end before they start are handled.
func WithPolicy(p interval.Policy) Option {
	return func(o *OptionHolder) {
		o.policy = p
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *OptionHolder) {
		o.runID = id
	}
}

// WithClock sets the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(o *OptionHolder) {
		o.now = now
	}
}

// OptionHolder holds configuration options.
type OptionHolder struct {
	now    func() time.Time
	policy interval.Policy
	runID  string
}

// Span is the covered period, from the first interval start to the last interval end.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Result represents one tally of a report.
type Result struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Span        *Span               `json:"span,omitempty"`
	RunID       string              `json:"run_id"`
	Policy      interval.Policy     `json:"inverted_policy"`
	Intervals   []interval.Interval `json:"intervals"`
	Summary     aggregate.Summary   `json:"summary"`
	Records     int                 `json:"records"`
	Inverted    int                 `json:"inverted"`
	Skipped     int                 `json:"skipped"`
}

// Empty reports whether the tally found no intervals.
func (r *Result) Empty() bool {
	return len(r.Intervals) == 0
}
