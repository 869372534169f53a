// Package report renders tally results for the terminal or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/codeGROOVE-dev/uptally/pkg/tally"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// maxBarWidth is the width of the bar drawn for the longest interval.
const maxBarWidth = 40

// TextOptions controls the terminal rendering.
type TextOptions struct {
	Location      *time.Location // display zone; UTC when nil
	Source        string
	Precision     int32
	ShowIntervals bool
}

// hours renders v with a fixed number of decimals.
func hours(v float64, precision int32) string {
	return decimal.NewFromFloat(v).StringFixed(precision)
}

// Text writes the human-readable summary of r.
func Text(w io.Writer, r *tally.Result, opts TextOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var out strings.Builder
	if opts.Source != "" {
		out.WriteString(fmt.Sprintf("\n⏱️  Report: %s\n", opts.Source))
	} else {
		out.WriteString("\n⏱️  Uptime Report\n")
	}
	out.WriteString(strings.Repeat("─", 50) + "\n")

	if r.Empty() {
		out.WriteString("No intervals found")
		if r.Records > 0 || r.Skipped > 0 {
			out.WriteString(fmt.Sprintf(" (%d records, %d skipped)", r.Records, r.Skipped))
		}
		out.WriteString("\n")
		_, err := io.WriteString(w, out.String())
		return err
	}

	s := r.Summary
	out.WriteString(fmt.Sprintf("🕐 Total Uptime:  %sh\n", hours(s.Sum, opts.Precision)))
	out.WriteString(fmt.Sprintf("📊 Mean Interval: %sh\n", hours(s.Mean, opts.Precision)))
	out.WriteString(fmt.Sprintf("🔥 Max Interval:  %sh\n", hours(s.Max, opts.Precision)))
	out.WriteString(fmt.Sprintf("🧮 Intervals:     %d merged from %d records\n", s.Count, r.Records))
	if r.Span != nil {
		out.WriteString(fmt.Sprintf("📅 Covered:       %s → %s (%s)\n",
			r.Span.Start.In(loc).Format("2006-01-02 15:04"),
			r.Span.End.In(loc).Format("2006-01-02 15:04"),
			loc.String()))
	}

	if r.Inverted > 0 {
		msg := fmt.Sprintf("⚠️  Inverted:      %d records end before they start (policy: %s)", r.Inverted, r.Policy)
		out.WriteString(color.New(color.FgYellow).Sprint(msg) + "\n")
	}
	if r.Skipped > 0 {
		msg := fmt.Sprintf("⚠️  Skipped:       %d invalid rows", r.Skipped)
		out.WriteString(color.New(color.FgYellow).Sprint(msg) + "\n")
	}

	if opts.ShowIntervals {
		out.WriteString("\n")
		out.WriteString(Intervals(r.Intervals, loc, opts.Precision))
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// Intervals draws one bar per merged interval, scaled to the longest one.
// The longest interval is marked with "^", inverted intervals with "!".
func Intervals(ivs []interval.Interval, loc *time.Location, precision int32) string {
	var out strings.Builder
	out.WriteString("📈 Merged Intervals\n")
	out.WriteString(strings.Repeat("─", 50) + "\n")
	if len(ivs) == 0 {
		return out.String() + "No intervals\n"
	}

	longest := 0.0
	for _, iv := range ivs {
		if h := iv.Hours(); h > longest {
			longest = h
		}
	}

	grey := color.New(color.FgHiBlack)
	peak := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	for _, iv := range ivs {
		h := iv.Hours()
		start := iv.Start.In(loc)
		end := iv.End.In(loc)

		endLayout := "15:04"
		if start.YearDay() != end.YearDay() || start.Year() != end.Year() {
			endLayout = "2006-01-02 15:04"
		}
		line := fmt.Sprintf("%s → %-16s ", start.Format("2006-01-02 15:04"), end.Format(endLayout))

		switch {
		case h < 0:
			line += bad.Sprint("!") + " "
		case h == longest:
			line += peak.Sprint("^") + " "
		default:
			line += "  "
		}
		line += fmt.Sprintf("(%8sh) ", hours(h, precision))

		if h > 0 && longest > 0 {
			width := int(h / longest * maxBarWidth)
			barColor := grey
			if h == longest {
				barColor = peak
			}
			if width == 0 {
				line += barColor.Sprint("·")
			} else {
				line += barColor.Sprint(strings.Repeat("█", width))
			}
		}
		if iv.Records > 1 {
			line += fmt.Sprintf(" %d records", iv.Records)
		}
		out.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return out.String()
}

type jsonResult struct {
	*tally.Result
	Summary  any    `json:"summary"`
	Timezone string `json:"timezone"`
}

// JSON writes r as indented JSON with the summary rounded to precision decimals.
func JSON(w io.Writer, r *tally.Result, loc *time.Location, precision int32) error {
	if loc == nil {
		loc = time.UTC
	}
	out := jsonResult{Result: r, Timezone: loc.String()}
	if r.Empty() {
		out.Summary = nil
	} else {
		out.Summary = r.Summary.Round(precision)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
