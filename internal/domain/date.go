package domain

import (
	"strings"
	"time"
)

// DateLayout is the canonical date-only form used for storage and comparison.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// NormalizeDate parses a raw date and returns its canonical YYYY-MM-DD form.
// Timestamps carrying an offset are converted to UTC before the time of day is dropped.
func NormalizeDate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", BadRequest("invalid date", map[string]any{"date": raw})
	}

	if d, err := time.Parse(DateLayout, value); err == nil {
		return d.Format(DateLayout), nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC().Format(DateLayout), nil
		}
	}
	return "", BadRequest("invalid date", map[string]any{"date": raw})
}

// DateToTime converts a canonical date to midnight UTC.
func DateToTime(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// TimeToDate formats t as a canonical date, ignoring its time of day.
func TimeToDate(t time.Time) string {
	return t.Format(DateLayout)
}
