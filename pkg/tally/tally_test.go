package tally

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/aggregate"
	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/codeGROOVE-dev/uptally/pkg/loader"
	"github.com/google/go-cmp/cmp"
)

var (
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
	fixed = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
)

func csvLoader(body string) loader.Loader {
	return loader.NewCSV(strings.NewReader(body), loader.Options{SkipInvalid: true, Logger: quiet})
}

func newTallier(opts ...Option) *Tallier {
	opts = append([]Option{WithRunID("test-run"), WithClock(func() time.Time { return fixed })}, opts...)
	return New(quiet, opts...)
}

func TestRun(t *testing.T) {
	body := "CreatedOn,ProjectedComputeShutdown\n" +
		"2024-03-04 10:00,2024-03-04 12:00\n" +
		"2024-03-04 11:00,2024-03-04 13:00\n" +
		"garbage,2024-03-04 14:00\n" +
		"2024-03-04 15:00,2024-03-04 16:00\n"

	got, err := newTallier().Run(context.Background(), csvLoader(body))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := aggregate.Summary{Count: 2, Sum: 4, Mean: 2, Max: 3}
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
	if got.RunID != "test-run" || !got.GeneratedAt.Equal(fixed) {
		t.Errorf("RunID, GeneratedAt = %q, %v; want test-run, %v", got.RunID, got.GeneratedAt, fixed)
	}
	if got.Records != 3 || got.Skipped != 1 || got.Inverted != 0 {
		t.Errorf("Records, Skipped, Inverted = %d, %d, %d; want 3, 1, 0", got.Records, got.Skipped, got.Inverted)
	}
	wantSpan := &Span{
		Start: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(wantSpan, got.Span); diff != "" {
		t.Errorf("Span mismatch (-want +got):\n%s", diff)
	}
}

func TestRunEmpty(t *testing.T) {
	got, err := newTallier().Run(context.Background(), csvLoader("CreatedOn,ProjectedComputeShutdown\n"))
	if !errors.Is(err, aggregate.ErrEmptyAggregate) {
		t.Fatalf("Run() error = %v, want ErrEmptyAggregate", err)
	}
	if got == nil || !got.Empty() || got.Span != nil {
		t.Errorf("Run() result = %+v, want an empty result", got)
	}
}

func TestRunLoadError(t *testing.T) {
	l := loader.NewCSV(strings.NewReader("CreatedOn,ProjectedComputeShutdown\nnope,nope\n"), loader.Options{Logger: quiet})
	_, err := newTallier().Run(context.Background(), l)
	var recErr *loader.InvalidRecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("Run() error = %v, want *loader.InvalidRecordError", err)
	}
}

func TestTallyPolicies(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 3, 4, h, 0, 0, 0, time.UTC) }
	records := []interval.Record{
		{Start: at(9), End: at(10), Row: 2},
		{Start: at(14), End: at(12), Row: 3},
	}

	tests := []struct {
		policy  interval.Policy
		want    aggregate.Summary
		wantErr bool
	}{
		{policy: interval.PolicyReject, wantErr: true},
		{policy: interval.PolicyClamp, want: aggregate.Summary{Count: 2, Sum: 1, Mean: 0.5, Max: 1}},
		{policy: interval.PolicyPass, want: aggregate.Summary{Count: 2, Sum: -1, Mean: -0.5, Max: 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			got, err := newTallier(WithPolicy(tt.policy)).Tally(records)
			if tt.wantErr {
				var invErr *interval.InvertedRecordError
				if !errors.As(err, &invErr) {
					t.Fatalf("Tally() error = %v, want *interval.InvertedRecordError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tally() error = %v", err)
			}
			if got.Inverted != 1 {
				t.Errorf("Inverted = %d, want 1", got.Inverted)
			}
			if diff := cmp.Diff(tt.want, got.Summary); diff != "" {
				t.Errorf("Summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewGeneratesRunID(t *testing.T) {
	body := "CreatedOn,ProjectedComputeShutdown\n2024-03-04 08:00,2024-03-04 08:30\n"
	got, err := New(quiet).Run(context.Background(), csvLoader(body))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.RunID) != 36 {
		t.Errorf("RunID = %q, want a UUID", got.RunID)
	}
	if got.Summary.Sum != 0.5 || got.Summary.Mean != 0.5 || got.Summary.Max != 0.5 {
		t.Errorf("Summary = %+v, want 0.5 everywhere", got.Summary)
	}
}
