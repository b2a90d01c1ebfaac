package batch

import (
	"errors"
	"testing"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/convai"
)

func TestParseScheduledTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-07-10T15:30:00Z", time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC)},
		{"2025-07-10 15:30", time.Date(2025, 7, 10, 15, 30, 0, 0, ny)},
		{"2025-07-10", time.Date(2025, 7, 10, 12, 0, 0, 0, ny)},
		{"2025-07-10 3 PM", time.Date(2025, 7, 10, 15, 0, 0, 0, ny)},
		{"2025-07-10 9:45 AM", time.Date(2025, 7, 10, 9, 45, 0, 0, ny)},
		{"2025-07-10 3pm", time.Date(2025, 7, 10, 15, 0, 0, 0, ny)},
		{"2025/07/10 16:05:00", time.Date(2025, 7, 10, 16, 5, 0, 0, ny)},
	}
	for _, c := range cases {
		got, err := ParseScheduledTime(c.in, ny)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want.Unix() {
			t.Fatalf("%q = %v, want %v", c.in, time.Unix(got, 0).In(ny), c.want)
		}
	}
}

func TestParseLayouts_AMPM(t *testing.T) {
	got, ok := parseLayouts("2025-07-10 3 pm", time.UTC)
	if !ok || !got.Equal(time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected %v %v", got, ok)
	}
	got, ok = parseLayouts("2025-07-10 9:45 AM", time.UTC)
	if !ok || !got.Equal(time.Date(2025, 7, 10, 9, 45, 0, 0, time.UTC)) {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestParseScheduledTime_EmptyAndInvalid(t *testing.T) {
	got, err := ParseScheduledTime("  ", time.UTC)
	if err != nil || got != convai.ImmediateSchedule {
		t.Fatalf("expected immediate sentinel, got %d %v", got, err)
	}
	if _, err := ParseScheduledTime("whenever", time.UTC); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
