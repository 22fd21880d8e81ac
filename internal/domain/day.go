package domain

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-date key format used for daily records.
const DayLayout = "2006-01-02"

// FormatDay returns the calendar day of t in loc.
func FormatDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: want YYYY-MM-DD", day)
	}
	return t, nil
}

// ValidDay reports whether day is a well-formed calendar date.
func ValidDay(day string) bool {
	_, err := time.Parse(DayLayout, day)
	return err == nil
}

// DayBounds returns the [start, end) instants of day in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDay(day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
