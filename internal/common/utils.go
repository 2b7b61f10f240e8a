package common

import (
	"strings"
	"time"
)

// DateLayout is the canonical day format used in documents, logs and routes.
const DateLayout = "2006-01-02"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DateOnly normalizes a timestamp to 00:00:00 UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD day into a UTC midnight timestamp.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Today returns the current calendar day in loc, as UTC midnight.
func Today(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}

// Result is the outcome of a best-effort side effect. Producers log the
// failure and hand it back instead of returning an error.
type Result struct {
	Err error
}

// OK reports whether the side effect succeeded.
func (r Result) OK() bool { return r.Err == nil }
