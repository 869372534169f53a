package loader

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/xuri/excelize/v2"
)

// XLSX loads records from one worksheet of an Excel workbook.
type XLSX struct {
	r       io.Reader
	parser  *Parser
	opts    Options
	skipped int
}

// NewXLSX returns a loader reading a workbook from r.
func NewXLSX(r io.Reader, opts Options) *XLSX {
	opts = opts.withDefaults()
	return &XLSX{
		r:      r,
		opts:   opts,
		parser: NewParser(opts.Location, opts.Layouts),
	}
}

// serialCell parses a raw cell: numbers are Excel serial dates, anything else goes to the parser.
// Serial dates carry no zone, so the wall clock is placed in the configured location.
func (x *XLSX) serialCell(date1904 bool) func(string) (time.Time, error) {
	return func(value string) (time.Time, error) {
		value = strings.TrimSpace(value)
		serial, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return x.parser.Parse(value)
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, err
		}
		// Excel stores milliseconds at most; drop float noise below that.
		t = t.Round(time.Millisecond)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), x.opts.Location), nil
	}
}

// Load reads every row of the configured sheet.
func (x *XLSX) Load(ctx context.Context) ([]interval.Record, error) {
	f, err := excelize.OpenReader(x.r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			x.opts.Logger.Debug("failed to close workbook", "error", closeErr)
		}
	}()

	sheet := x.opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := findColumns(rows[0], x.opts.StartColumn, x.opts.EndColumn)
	if err != nil {
		return nil, err
	}
	x.opts.Logger.Debug("columns resolved", "sheet", sheet,
		"start", x.opts.StartColumn, "start_index", cols.start,
		"end", x.opts.EndColumn, "end_index", cols.end)

	b := &rowBuilder{
		cols:        cols,
		parseCell:   x.serialCell(date1904),
		skipInvalid: x.opts.SkipInvalid,
		logger:      x.opts.Logger,
	}

	var records []interval.Record
	for i, fields := range rows[1:] {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// Sheet rows are 1-based and the header occupies row 1.
		records, err = b.add(records, i+2, fields)
		if err != nil {
			return nil, err
		}
	}

	x.skipped = b.skipped
	x.opts.Logger.Debug("workbook loaded", "sheet", sheet, "records", len(records), "skipped", b.skipped)
	return records, nil
}

// Skipped returns the number of invalid rows skipped by the last Load.
func (x *XLSX) Skipped() int {
	return x.skipped
}
