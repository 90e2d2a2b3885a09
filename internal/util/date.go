package util

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CalendarDateLayout is the wire format for trip dates
const CalendarDateLayout = "2006-01-02"

// ParseCalendarDate returns midnight of the calendar day named by s in loc.
// Date-only strings keep their literal day; RFC 3339 timestamps are converted
// to loc first and then truncated to that local day.
func ParseCalendarDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.ParseInLocation(CalendarDateLayout, s, loc); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return StartOfDay(t.In(loc)), nil
}

// StartOfDay returns 00:00:00.000 of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// CeilDays rounds a duration up to whole days, never below zero
func CeilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
