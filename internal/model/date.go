package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
// ISO dates compare correctly as strings, which keeps date ordering and
// the strictly-future check free of timezone arithmetic.
const DateLayout = "2006-01-02"

// ParseDate validates an ISO "YYYY-MM-DD" date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateWeekday returns the template weekday of an ISO date string.
func DateWeekday(s string) (Weekday, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return WeekdayOf(t.Weekday()), nil
}

// IsStrictlyFuture reports whether the ISO date falls after now's
// calendar date. Same-day is not future, regardless of time of day.
func IsStrictlyFuture(date string, now time.Time) bool {
	return date > now.Format(DateLayout)
}
