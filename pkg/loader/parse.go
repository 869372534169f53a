package loader

import (
	"errors"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
)

// DefaultLayouts are tried in order when no layouts are configured.
// They cover RFC 3339, pandas/ISO style and the US formats Excel writes to CSV.
var DefaultLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
}

var errNoLayout = errors.New("no layout matched")

// Parser converts timestamp strings into times.
// Exports repeat the same timestamps across rows, so results are memoized.
type Parser struct {
	loc     *time.Location
	cache   *otter.Cache[string, time.Time]
	layouts []string
}

// NewParser returns a parser interpreting zone-less values in loc.
func NewParser(loc *time.Location, layouts []string) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	return &Parser{
		loc:     loc,
		layouts: layouts,
		cache: otter.Must(&otter.Options[string, time.Time]{
			MaximumSize:     50_000,
			InitialCapacity: 1_024,
		}),
	}
}

// Parse parses value with the first matching layout.
func (p *Parser) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty value")
	}
	if t, ok := p.cache.GetIfPresent(value); ok {
		return t, nil
	}

	for _, layout := range p.layouts {
		t, err := time.ParseInLocation(layout, value, p.loc)
		if err == nil {
			p.cache.Set(value, t)
			return t, nil
		}
	}
	return time.Time{}, errNoLayout
}

// CacheSize returns the number of memoized values.
func (p *Parser) CacheSize() int {
	return p.cache.EstimatedSize()
}
