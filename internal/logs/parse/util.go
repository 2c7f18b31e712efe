package parse

import (
	"strconv"
	"strings"
	"time"
)

func parseIntLoose(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloatLoose(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// timestampLayouts are tried in order against any conventional timestamp
// field; the first that parses wins.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		// Bare numeric timestamps: treat as Unix epoch seconds (fractional
		// allowed), the common zerolog/zap "unixtime" encoding.
		whole := int64(secs)
		frac := secs - float64(whole)
		return time.Unix(whole, int64(frac*1e9)).UTC(), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
