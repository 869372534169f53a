package interval

import (
	"fmt"
	"strings"
	"time"
)

// Policy decides what happens to records whose end precedes their start.
type Policy string

const (
	// PolicyReject fails on the first inverted record.
	PolicyReject Policy = "reject"
	// PolicyClamp sets the end of an inverted record to its start.
	PolicyClamp Policy = "clamp"
	// PolicyPass keeps inverted records, which yields negative durations.
	PolicyPass Policy = "pass"
)

// Policies lists the accepted policy names.
var Policies = []Policy{PolicyReject, PolicyClamp, PolicyPass}

// ParsePolicy parses a policy name. An empty name selects PolicyReject.
func ParsePolicy(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PolicyReject, nil
	}
	for _, p := range Policies {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown inverted-record policy %q (want reject, clamp or pass)", name)
}

// InvertedRecordError is returned by ApplyPolicy under PolicyReject.
type InvertedRecordError struct {
	Start time.Time
	End   time.Time
	Row   int
}

func (e *InvertedRecordError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: end %s is before start %s",
			e.Row, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	return fmt.Sprintf("end %s is before start %s", e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// ApplyPolicy handles inverted records according to p and returns the records to merge
// along with the number of inverted records seen. The input slice is not modified.
func ApplyPolicy(records []Record, p Policy) ([]Record, int, error) {
	out := make([]Record, 0, len(records))
	inverted := 0
	for _, r := range records {
		if !Inverted(r) {
			out = append(out, r)
			continue
		}
		inverted++
		switch p {
		case PolicyClamp:
			r.End = r.Start
		case PolicyPass:
		default:
			return nil, inverted, &InvertedRecordError{Start: r.Start, End: r.End, Row: r.Row}
		}
		out = append(out, r)
	}
	return out, inverted, nil
}
