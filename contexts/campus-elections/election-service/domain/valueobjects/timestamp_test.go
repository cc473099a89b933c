package valueobjects

import (
	"testing"
	"time"
)

func TestParseTimestampConvertsLocalWallClockToUTC(t *testing.T) {
	parsed, err := ParseTimestamp("2025-03-01T09:30", "Africa/Kampala", nil)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	expected := time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, parsed)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", parsed.Location())
	}
}

func TestParseTimestampKeepsExplicitOffset(t *testing.T) {
	parsed, err := ParseTimestamp("2025-03-01T09:30:00+02:00", "America/New_York", nil)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	expected := time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, parsed)
	}
}

func TestParseTimestampUsesFallbackZone(t *testing.T) {
	fallback := time.FixedZone("test", -5*60*60)
	parsed, err := ParseTimestamp("2025-03-01 10:00", "", fallback)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	expected := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, parsed)
	}
}

func TestParseTimestampRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		zone string
	}{
		{name: "empty", raw: "  "},
		{name: "garbage", raw: "next tuesday"},
		{name: "unknown zone", raw: "2025-03-01T09:30", zone: "Mars/Olympus"},
	}
	for _, tc := range cases {
		if _, err := ParseTimestamp(tc.raw, tc.zone, nil); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
