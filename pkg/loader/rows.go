package loader

import (
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
)

// columns holds the positions of the start and end columns in a header.
type columns struct {
	startName string
	endName   string
	start     int
	end       int
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

// findColumns locates the start and end columns by case-insensitive name.
func findColumns(header []string, startName, endName string) (columns, error) {
	cols := columns{startName: startName, endName: endName, start: -1, end: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case normalizeHeader(startName):
			if cols.start < 0 {
				cols.start = i
			}
		case normalizeHeader(endName):
			if cols.end < 0 {
				cols.end = i
			}
		}
	}
	if cols.start < 0 {
		return cols, &MissingColumnError{Column: startName, Header: header}
	}
	if cols.end < 0 {
		return cols, &MissingColumnError{Column: endName, Header: header}
	}
	return cols, nil
}

// rowBuilder turns raw rows into records, honoring SkipInvalid.
type rowBuilder struct {
	logger *slog.Logger
	// parseCell converts one cell; workbooks also accept serial dates.
	parseCell   func(string) (time.Time, error)
	cols        columns
	skipped     int
	skipInvalid bool
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// add parses one row and appends it to records. Rows with no content are ignored.
func (b *rowBuilder) add(records []interval.Record, row int, fields []string) ([]interval.Record, error) {
	if blank(fields) {
		return records, nil
	}

	start, err := b.cell(row, b.cols.startName, field(fields, b.cols.start))
	if err == nil {
		var end time.Time
		end, err = b.cell(row, b.cols.endName, field(fields, b.cols.end))
		if err == nil {
			return append(records, interval.Record{Start: start, End: end, Row: row}), nil
		}
	}

	if !b.skipInvalid {
		return records, err
	}
	b.skipped++
	b.logger.Warn("skipping invalid row", "row", row, "error", err)
	return records, nil
}

func (b *rowBuilder) cell(row int, column, value string) (time.Time, error) {
	t, err := b.parseCell(value)
	if err != nil {
		return time.Time{}, &InvalidRecordError{
			Row:    row,
			Column: column,
			Value:  strings.TrimSpace(value),
			Err:    err,
		}
	}
	return t, nil
}
