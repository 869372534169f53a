package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSV loads records from delimited text with a header row.
type CSV struct {
	r       io.Reader
	parser  *Parser
	opts    Options
	skipped int
}

// NewCSV returns a loader reading delimited text from r.
func NewCSV(r io.Reader, opts Options) *CSV {
	opts = opts.withDefaults()
	return &CSV{
		r:      r,
		opts:   opts,
		parser: NewParser(opts.Location, opts.Layouts),
	}
}

// decode strips a UTF-8 byte order mark and converts UTF-16 input to UTF-8.
// Excel's "Unicode text" export is UTF-16 with a BOM.
func decode(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	b, _ := br.Peek(3) //nolint:errcheck // short input is handled by the csv reader
	switch {
	case len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		if _, err := br.Discard(3); err != nil {
			return br
		}
	default:
	}
	return br
}

// Load reads every row. It stops at the first invalid row unless SkipInvalid is set.
func (c *CSV) Load(ctx context.Context) ([]interval.Record, error) {
	r := csv.NewReader(decode(c.r))
	r.Comma = c.opts.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := findColumns(header, c.opts.StartColumn, c.opts.EndColumn)
	if err != nil {
		return nil, err
	}
	c.opts.Logger.Debug("columns resolved",
		"start", c.opts.StartColumn, "start_index", cols.start,
		"end", c.opts.EndColumn, "end_index", cols.end)

	b := &rowBuilder{
		cols:        cols,
		parseCell:   c.parser.Parse,
		skipInvalid: c.opts.SkipInvalid,
		logger:      c.opts.Logger,
	}

	var records []interval.Record
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		line, _ := r.FieldPos(0)
		records, err = b.add(records, line, fields)
		if err != nil {
			return nil, err
		}
	}

	c.skipped = b.skipped
	c.opts.Logger.Debug("csv loaded", "records", len(records), "skipped", b.skipped,
		"distinct_timestamps", c.parser.CacheSize())
	return records, nil
}

// Skipped returns the number of invalid rows skipped by the last Load.
func (c *CSV) Skipped() int {
	return c.skipped
}
