package util

import (
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate. The market backend mixes ISO
// dates, day-first dates and pandas timestamps.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02-01-2006 15:04:05",
}

// ParseDate parses a calendar date or timestamp. Returns (t, true) if any layout worked.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
