// Package loader reads session reports (CSV or Excel workbooks) into interval records.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
)

// Default column names of the compute session export.
const (
	DefaultStartColumn = "CreatedOn"
	DefaultEndColumn   = "ProjectedComputeShutdown"
)

// Loader produces the records of one report.
type Loader interface {
	Load(ctx context.Context) ([]interval.Record, error)
}

// Options configures how a report is read.
type Options struct {
	Location    *time.Location
	Logger      *slog.Logger
	HTTPClient  *http.Client
	StartColumn string
	EndColumn   string
	Sheet       string // worksheet name for workbooks; first sheet when empty
	Format      string // "csv" or "xlsx"; detected from the source extension when empty
	Layouts     []string
	Delimiter   rune
	SkipInvalid bool
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.StartColumn == "" {
		o.StartColumn = DefaultStartColumn
	}
	if o.EndColumn == "" {
		o.EndColumn = DefaultEndColumn
	}
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	return o
}

// InvalidRecordError reports a timestamp that could not be parsed.
type InvalidRecordError struct {
	Err    error
	Column string
	Value  string
	Row    int
}

func (e *InvalidRecordError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: column %q is empty", e.Row, e.Column)
	}
	return fmt.Sprintf("row %d: column %q: cannot parse %q as a timestamp", e.Row, e.Column, e.Value)
}

func (e *InvalidRecordError) Unwrap() error {
	return e.Err
}

// MissingColumnError reports a header without a required column.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found in header [%s]", e.Column, strings.Join(e.Header, ", "))
}

// Skipper is implemented by loaders that can skip invalid rows.
type Skipper interface {
	Skipped() int
}
