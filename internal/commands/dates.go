package commands

import (
	"strings"
	"time"
)

// dueLayout is how due dates are stored: a calendar date at UTC midnight.
const dueLayout = "2006-01-02T15:04:05.000Z"

// parseDue accepts YYYY-MM-DD or RFC 3339 and returns the stored due value.
func parseDue(s string) (string, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d.Format(dueLayout), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", userErrorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(dueLayout), nil
}

// parseStart accepts RFC 3339 or "YYYY-MM-DD HH:MM" in local time.
func parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, userErrorf("invalid start time: %s (want YYYY-MM-DD HH:MM)", s)
}
