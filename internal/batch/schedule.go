package batch

import (
	"strings"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/convai"

	"github.com/araddon/dateparse"
)

const dateOnly = "2006-01-02"

// Layouts tried before the general parser, in order.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 3 PM",
	"2006-01-02 3PM",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseScheduledTime converts a human-entered schedule into unix seconds.
// Empty input means run immediately. Times without a zone are read in loc.
// A bare date is scheduled at 12:00.
func ParseScheduledTime(s string, loc *time.Location) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return convai.ImmediateSchedule, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if d, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		return d.Add(12 * time.Hour).Unix(), nil
	}
	if t, ok := parseLayouts(s, loc); ok {
		return t.Unix(), nil
	}
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t.Unix(), nil
	}
	return 0, apperr.Validation("invalid scheduled_time %q, use YYYY-MM-DD HH:MM, YYYY-MM-DD h AM/PM or ISO 8601", s)
}

func parseLayouts(s string, loc *time.Location) (time.Time, bool) {
	upper := strings.ToUpper(s)
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, upper, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
