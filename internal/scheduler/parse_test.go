package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestParseRunAtRelative(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.Local)
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"in 10m", 10 * time.Minute},
		{"in 2h", 2 * time.Hour},
		{"in 1d", 24 * time.Hour},
		{"in 10 m", 10 * time.Minute},
		{"IN 5M", 5 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseRunAt(tt.raw, now)
		if err != nil {
			t.Fatalf("ParseRunAt(%q) error: %v", tt.raw, err)
		}
		if got.Sub(now) != tt.want {
			t.Errorf("ParseRunAt(%q) = now+%v, want now+%v", tt.raw, got.Sub(now), tt.want)
		}
	}
}

func TestParseRunAtAbsolute(t *testing.T) {
	t.Parallel()
	now := time.Now()
	got, err := ParseRunAt("2026-02-08 21:30", now)
	if err != nil {
		t.Fatalf("ParseRunAt error: %v", err)
	}
	want := time.Date(2026, 2, 8, 21, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("ParseRunAt = %v, want %v", got, want)
	}
	if got.UnixMilli() != want.UnixMilli() {
		t.Fatalf("epoch ms mismatch: %d vs %d", got.UnixMilli(), want.UnixMilli())
	}
}

func TestParseRunAtRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"not a time", "in 10x", "in m", "2026-2-8 21:30", "21:30", ""} {
		if _, err := ParseRunAt(raw, time.Now()); !errors.Is(err, ErrBadSchedule) {
			t.Errorf("ParseRunAt(%q) err = %v, want ErrBadSchedule", raw, err)
		}
	}
}

func TestValidateLead(t *testing.T) {
	t.Parallel()
	now := time.Now()
	if err := ValidateLead(now.Add(9*time.Second), now); !errors.Is(err, ErrTooSoon) {
		t.Fatalf("9s lead accepted: %v", err)
	}
	if err := ValidateLead(now.Add(11*time.Second), now); err != nil {
		t.Fatalf("11s lead rejected: %v", err)
	}
}
