package model

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The trailing-Z shorthand is rewritten
// to an explicit offset before matching, so only numeric-offset and naive
// layouts appear here. Naive layouts are interpreted as UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp normalizes a raw submission timestamp string into a
// comparable time value. The second return value is false when the input is
// empty or does not match any supported shape; callers must treat that as
// "unknown" rather than an error.
func ParseTimestamp(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	if strings.HasSuffix(cleaned, "Z") {
		cleaned = strings.TrimSuffix(cleaned, "Z") + "+00:00"
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return ts, true
		}
	}

	return time.Time{}, false
}
