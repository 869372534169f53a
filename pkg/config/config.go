// Package config loads uptally settings from defaults, a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/uptally/pkg/interval"
	"github.com/codeGROOVE-dev/uptally/pkg/loader"
	"github.com/codeGROOVE-dev/uptally/pkg/tzconvert"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "UPTALLY_"

// Config holds all settings of a run.
type Config struct {
	StartColumn   string   `yaml:"start_column" validate:"required"`
	EndColumn     string   `yaml:"end_column" validate:"required"`
	Sheet         string   `yaml:"sheet"`
	Delimiter     string   `yaml:"delimiter" validate:"omitempty,len=1"`
	Format        string   `yaml:"format" validate:"omitempty,oneof=csv xlsx"`
	Timezone      string   `yaml:"timezone"`
	Inverted      string   `yaml:"inverted" validate:"oneof=reject clamp pass"`
	Output        string   `yaml:"output" validate:"oneof=text json"`
	Layouts       []string `yaml:"layouts" validate:"dive,required"`
	Precision     int      `yaml:"precision" validate:"min=0,max=6"`
	SkipInvalid   bool     `yaml:"skip_invalid"`
	ShowIntervals bool     `yaml:"show_intervals"`
}

// Default returns the settings for the standard compute session export.
func Default() *Config {
	return &Config{
		StartColumn: loader.DefaultStartColumn,
		EndColumn:   loader.DefaultEndColumn,
		Delimiter:   ",",
		Timezone:    "UTC",
		Inverted:    string(interval.PolicyReject),
		Output:      "text",
		Precision:   2,
	}
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return c.Decode(f)
}

// Decode overlays YAML from r onto c.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// ApplyEnv overlays UPTALLY_* variables onto c. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"START_COL": &c.StartColumn,
		"END_COL":   &c.EndColumn,
		"SHEET":     &c.Sheet,
		"DELIMITER": &c.Delimiter,
		"FORMAT":    &c.Format,
		"TZ":        &c.Timezone,
		"INVERTED":  &c.Inverted,
		"OUTPUT":    &c.Output,
	}
	for name, dst := range strs {
		if val := getenv(EnvPrefix + name); val != "" {
			*dst = val
		}
	}

	if val := getenv(EnvPrefix + "LAYOUTS"); val != "" {
		c.Layouts = strings.Split(val, "|")
	}
	if val := getenv(EnvPrefix + "PRECISION"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%sPRECISION: %w", EnvPrefix, err)
		}
		c.Precision = n
	}
	if val := getenv(EnvPrefix + "SKIP_INVALID"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%sSKIP_INVALID: %w", EnvPrefix, err)
		}
		c.SkipInvalid = b
	}
	return nil
}

// NormalizeDelimiter accepts the spellings "\t" and "tab" for a tab.
func NormalizeDelimiter(s string) string {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return "\t"
	default:
		return s
	}
}

// Validate checks field constraints and that the timezone resolves.
func (c *Config) Validate() error {
	c.Delimiter = NormalizeDelimiter(c.Delimiter)
	c.Inverted = strings.ToLower(c.Inverted)
	c.Output = strings.ToLower(c.Output)
	c.Format = strings.ToLower(c.Format)

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := tzconvert.ParseLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy returns the inverted-record policy.
func (c *Config) Policy() interval.Policy {
	p, err := interval.ParsePolicy(c.Inverted)
	if err != nil {
		return interval.PolicyReject
	}
	return p
}

// LoaderOptions converts the settings into loader options.
func (c *Config) LoaderOptions(logger *slog.Logger) (loader.Options, error) {
	loc, err := tzconvert.ParseLocation(c.Timezone)
	if err != nil {
		return loader.Options{}, err
	}
	var delim rune
	if d := NormalizeDelimiter(c.Delimiter); d != "" {
		delim, _ = utf8.DecodeRuneInString(d)
	}
	return loader.Options{
		Location:    loc,
		Logger:      logger,
		StartColumn: c.StartColumn,
		EndColumn:   c.EndColumn,
		Sheet:       c.Sheet,
		Format:      c.Format,
		Layouts:     c.Layouts,
		Delimiter:   delim,
		SkipInvalid: c.SkipInvalid,
	}, nil
}
