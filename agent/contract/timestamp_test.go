package contract

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2024-01-01T10:00:00Z":      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01T12:00:00+02:00": time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01T10:00:00":       time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		" 2024-01-01T10:00 ":        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01":                time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error = %v", raw, err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", raw, got, want)
		}
	}

	if _, err := ParseTimestamp("01/02/2024"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}
