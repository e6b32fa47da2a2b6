package scheduler

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinLead is the shortest allowed gap between submission and run time. It
// guards against a job firing before the submitting UI flow has settled.
const MinLead = 10 * time.Second

var relativeRe = regexp.MustCompile(`(?i)^in\s+(\d+)\s*([mhd])$`)

const absoluteLayout = "2006-01-02 15:04"

var ErrBadSchedule = errors.New("unrecognized schedule input")

// ParseRunAt resolves a user-supplied schedule string against now.
//
// Accepted forms:
//   - relative: "in 10m", "in 2h", "in 1d"
//   - absolute local date-time: "2026-02-08 21:30"
//
// Anything else is rejected with ErrBadSchedule.
func ParseRunAt(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, ErrBadSchedule
		}
		var d time.Duration
		switch strings.ToLower(m[2]) {
		case "m":
			d = time.Duration(n) * time.Minute
		case "h":
			d = time.Duration(n) * time.Hour
		case "d":
			d = time.Duration(n) * 24 * time.Hour
		}
		return now.Add(d), nil
	}

	if t, err := time.ParseInLocation(absoluteLayout, s, time.Local); err == nil {
		return t, nil
	}

	return time.Time{}, ErrBadSchedule
}

// ValidateLead rejects run times less than MinLead in the future.
func ValidateLead(runAt, now time.Time) error {
	if runAt.Before(now.Add(MinLead)) {
		return ErrTooSoon
	}
	return nil
}

// ErrTooSoon rejects schedules resolving to less than MinLead from now.
var ErrTooSoon = errors.New("run time must be at least 10 seconds in the future")
