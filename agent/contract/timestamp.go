package contract

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayouts are the interaction date formats accepted from clients:
// RFC 3339 plus the naive forms HTML date and datetime-local inputs send.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp tries each of TimestampLayouts. Naive values are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range TimestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", raw)
}
