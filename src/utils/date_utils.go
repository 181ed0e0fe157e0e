package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format used across ledger
// files and registry keys.
const DateLayout = "2006-01-02"

// dateLayouts covers the timestamp shapes seen in raw exports. Only the
// calendar date matters downstream; time-of-day is discarded.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	DateLayout,
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseDate parses an export or registry date cell and truncates it to a
// UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DateOnly truncates a timestamp to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
