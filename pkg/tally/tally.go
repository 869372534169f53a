// Package tally runs the load, merge and aggregate pipeline over a session report.
package tally

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/aggregate"
	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/codeGROOVE-dev/uptally/pkg/loader"
	"github.com/google/uuid"
)

// Tallier merges report records into uptime intervals and summarizes them.
type Tallier struct {
	logger *slog.Logger
	now    func() time.Time
	policy interval.Policy
	runID  string
}

// New creates a Tallier.
func New(logger *slog.Logger, opts ...Option) *Tallier {
	optHolder := &OptionHolder{
		policy: interval.PolicyReject,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(optHolder)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Tallier{
		logger: logger,
		now:    optHolder.now,
		policy: optHolder.policy,
		runID:  optHolder.runID,
	}
}

// Run loads the report and tallies it.
// When the report has no records the partial Result is returned together with
// an error wrapping aggregate.ErrEmptyAggregate.
func (t *Tallier) Run(ctx context.Context, l loader.Loader) (*Result, error) {
	runID := t.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := t.logger.With("run_id", runID)

	start := time.Now()
	records, err := l.Load(ctx)
	if err != nil {
		var recErr *loader.InvalidRecordError
		if errors.As(err, &recErr) {
			logger.Error("invalid record", "row", recErr.Row, "column", recErr.Column, "value", recErr.Value)
		}
		return nil, fmt.Errorf("loading report: %w", err)
	}

	skipped := 0
	if s, ok := l.(loader.Skipper); ok {
		skipped = s.Skipped()
	}
	logger.Debug("report loaded", "records", len(records), "skipped", skipped, "duration", time.Since(start))

	result, err := t.Tally(records)
	if result != nil {
		result.RunID = runID
		result.Skipped = skipped
	}
	if err != nil {
		if errors.Is(err, aggregate.ErrEmptyAggregate) {
			logger.Info("no intervals found", "records", len(records), "skipped", skipped)
		}
		return result, err
	}

	logger.Debug("tally complete",
		"records", result.Records,
		"intervals", len(result.Intervals),
		"sum_hours", result.Summary.Sum,
		"mean_hours", result.Summary.Mean,
		"max_hours", result.Summary.Max)
	return result, nil
}

// Tally merges and summarizes records that are already in memory.
func (t *Tallier) Tally(records []interval.Record) (*Result, error) {
	kept, inverted, err := interval.ApplyPolicy(records, t.policy)
	if inverted > 0 {
		t.logger.Warn("records end before they start",
			"count", inverted, "policy", string(t.policy))
	}
	if err != nil {
		return nil, fmt.Errorf("applying %s policy: %w", t.policy, err)
	}

	merged := interval.Merge(kept)
	result := &Result{
		GeneratedAt: t.now(),
		Policy:      t.policy,
		Intervals:   merged,
		Records:     len(records),
		Inverted:    inverted,
	}
	if first, last, ok := interval.Span(merged); ok {
		result.Span = &Span{Start: first, End: last}
	}

	summary, err := aggregate.Summarize(merged)
	if err != nil {
		return result, fmt.Errorf("summarizing %d records: %w", len(records), err)
	}
	result.Summary = summary
	return result, nil
}
