// Package tzconvert resolves the timezone that report timestamps are written in.
// Timestamps without an explicit offset are interpreted in this location;
// everything downstream compares absolute instants.
package tzconvert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseLocation resolves a timezone name.
// Accepted forms:
//   - "" or "UTC" returns time.UTC
//   - "Local" returns time.Local
//   - "UTC-4", "UTC+8", "UTC+5:30" return a fixed zone
//   - IANA names such as "America/New_York" are loaded from the tz database
func ParseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "", strings.EqualFold(name, "UTC"):
		return time.UTC, nil
	case name == "Local":
		return time.Local, nil
	case strings.HasPrefix(strings.ToUpper(name), "UTC"):
		seconds, err := ParseOffset(name)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(FormatOffset(seconds), seconds), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

// ParseOffset extracts the offset in seconds from a "UTC±H[:MM]" string.
// Examples:
//   - "UTC" returns 0
//   - "UTC-4" returns -14400
//   - "UTC+8" returns 28800
//   - "UTC+5:30" returns 19800
func ParseOffset(timezone string) (int, error) {
	if len(timezone) < 3 || !strings.EqualFold(timezone[:3], "UTC") {
		return 0, fmt.Errorf("offset %q does not start with UTC", timezone)
	}
	offsetStr := timezone[3:]
	if offsetStr == "" {
		return 0, nil
	}

	sign := 1
	switch offsetStr[0] {
	case '-':
		sign = -1
		offsetStr = offsetStr[1:]
	case '+':
		offsetStr = offsetStr[1:]
	default:
		// No sign means positive offset
	}

	hourStr, minuteStr, hasMinutes := strings.Cut(offsetStr, ":")
	hours, err := strconv.Atoi(hourStr)
	if err != nil || hours < 0 || hours > 14 {
		return 0, fmt.Errorf("invalid offset hours in %q", timezone)
	}
	minutes := 0
	if hasMinutes {
		minutes, err = strconv.Atoi(minuteStr)
		if err != nil || minutes < 0 || minutes >= 60 {
			return 0, fmt.Errorf("invalid offset minutes in %q", timezone)
		}
	}

	return sign * (hours*3600 + minutes*60), nil
}

// FormatOffset renders an offset in seconds as "UTC+8", "UTC-4" or "UTC+5:30".
func FormatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	hours, minutes := seconds/3600, (seconds%3600)/60
	if minutes != 0 {
		return fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
	}
	return fmt.Sprintf("UTC%s%d", sign, hours)
}
