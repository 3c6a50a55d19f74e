package timeutil

import (
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseDate accepts either a bare calendar date (interpreted in local time, no
// timezone shift) or a full RFC3339 timestamp. An empty input yields ok=false
// with no error so callers can substitute "now".
func ParseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}

	if t, err := time.ParseInLocation(dateOnly, raw, time.Local); err == nil {
		return t, true, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
