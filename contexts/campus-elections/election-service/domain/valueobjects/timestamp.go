package valueobjects

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts either a zone-qualified RFC 3339 value or a local
// wall-clock value interpreted in zoneName (an IANA name such as
// "Africa/Kampala"). An empty zoneName falls back to fallback, then UTC.
// The result is always UTC.
func ParseTimestamp(raw string, zoneName string, fallback *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed.UTC(), nil
	}

	location, err := ResolveLocation(zoneName, fallback)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, value, location); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339 or local date-time", value)
}

// ResolveLocation loads an IANA zone, defaulting to fallback and then UTC.
func ResolveLocation(zoneName string, fallback *time.Location) (*time.Location, error) {
	name := strings.TrimSpace(zoneName)
	if name == "" {
		if fallback != nil {
			return fallback, nil
		}
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return location, nil
}
