// Package main implements the uptally CLI, which totals compute uptime from session reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"github.com/codeGROOVE-dev/uptally/pkg/aggregate"
	"github.com/codeGROOVE-dev/uptally/pkg/config"
	"github.com/codeGROOVE-dev/uptally/pkg/loader"
	"github.com/codeGROOVE-dev/uptally/pkg/report"
	"github.com/codeGROOVE-dev/uptally/pkg/tally"
	"github.com/codeGROOVE-dev/uptally/pkg/tzconvert"
	"github.com/fatih/color"
)

const versionString = "uptally v1.0.0"

var (
	configPath  = flag.String("config", "", "YAML config file (or set UPTALLY_CONFIG)")
	startCol    = flag.String("start-col", "", "Column holding the session start (default CreatedOn)")
	endCol      = flag.String("end-col", "", "Column holding the projected shutdown (default ProjectedComputeShutdown)")
	sheet       = flag.String("sheet", "", "Worksheet to read from .xlsx reports (default: first sheet)")
	delimiter   = flag.String("delimiter", "", `Field delimiter for delimited text (use "tab" for tabs)`)
	format      = flag.String("format", "", "Input format: csv or xlsx (default: from the file extension)")
	tz          = flag.String("tz", "", "Timezone of timestamps without an offset: IANA name or UTC±N (default UTC)")
	inverted    = flag.String("inverted", "", "Records ending before they start: reject, clamp or pass (default reject)")
	skipInvalid = flag.Bool("skip-invalid", false, "Skip rows with unparsable timestamps instead of failing")
	output      = flag.String("output", "", "Output format: text or json (default text)")
	intervals   = flag.Bool("intervals", false, "List merged intervals")
	precision   = flag.Int("precision", -1, "Decimal places for hours (default 2)")
	noColor     = flag.Bool("no-color", false, "Disable colored output")
	timeout     = flag.Duration("timeout", 2*time.Minute, "Maximum time to load the report")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *version {
		fmt.Println(versionString)
		return 0
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <report.csv|report.xlsx|URL>\n", os.Args[0])
		flag.PrintDefaults()
		return 1
	}
	source := args[0]

	// Configure logging
	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// color already disables itself for NO_COLOR and non-terminal output.
	if *noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Configuration failed", "error", err)
		fmt.Fprintf(os.Stderr, "uptally: %v\n", err)
		return 1
	}
	logger.Debug("configuration",
		"source", source,
		"start_column", cfg.StartColumn,
		"end_column", cfg.EndColumn,
		"timezone", cfg.Timezone,
		"inverted", cfg.Inverted,
		"skip_invalid", cfg.SkipInvalid)

	opts, err := cfg.LoaderOptions(logger)
	if err != nil {
		logger.Error("Invalid loader options", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	l, closer, err := loader.Open(ctx, source, opts)
	if err != nil {
		logger.Error("Opening report failed", "error", err)
		fmt.Fprintf(os.Stderr, "uptally: %v\n", err)
		return 1
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Debug("Failed to close report", "error", err)
		}
	}()

	tallier := tally.New(logger, tally.WithPolicy(cfg.Policy()))
	result, err := tallier.Run(ctx, l)
	if err != nil && !errors.Is(err, aggregate.ErrEmptyAggregate) {
		logger.Error("Tally failed", "error", err)
		fmt.Fprintf(os.Stderr, "uptally: %v\n", err)
		return 1
	}

	if err := render(os.Stdout, result, cfg, source); err != nil {
		logger.Error("Writing report failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig layers defaults, the config file, UPTALLY_* variables and explicit flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if *configPath == "" {
		*configPath = os.Getenv("UPTALLY_CONFIG")
	}
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	// Flags override everything else, but only when given.
	if *startCol != "" {
		cfg.StartColumn = *startCol
	}
	if *endCol != "" {
		cfg.EndColumn = *endCol
	}
	if *sheet != "" {
		cfg.Sheet = *sheet
	}
	if *delimiter != "" {
		cfg.Delimiter = *delimiter
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *tz != "" {
		cfg.Timezone = *tz
	}
	if *inverted != "" {
		cfg.Inverted = *inverted
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *precision >= 0 {
		cfg.Precision = *precision
	}
	if *skipInvalid {
		cfg.SkipInvalid = true
	}
	if *intervals {
		cfg.ShowIntervals = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func render(w io.Writer, result *tally.Result, cfg *config.Config, source string) error {
	loc, err := tzconvert.ParseLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	prec := int32(cfg.Precision) //nolint:gosec // validated to 0-6

	if cfg.Output == "json" {
		return report.JSON(w, result, loc, prec)
	}
	return report.Text(w, result, report.TextOptions{
		Location:      loc,
		Source:        source,
		Precision:     prec,
		ShowIntervals: cfg.ShowIntervals,
	})
}
