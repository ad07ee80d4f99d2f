package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ISODate is the layout used for calendar dates at every boundary
const ISODate = "2006-01-02"

// ErrInvalidDate is returned when a string matches none of the accepted layouts
var ErrInvalidDate = errors.New("invalid date")

// DateOf returns the civil date of t as midnight UTC.
// The year, month and day are taken from t's own location, so a date parsed
// in any zone maps to the same calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday of the week for the given date
func StartOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	return DateOf(date).AddDate(0, 0, -(weekday - 1))
}

// StartOfMonth returns the first day of the month
func StartOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

// EndOfMonth returns the last day of the month
func EndOfMonth(year int, month time.Month) time.Time {
	return Date(year, month+1, 0)
}

// DaysInMonth returns the number of days in the month
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// Before reports whether the civil date of a is earlier than that of b
func Before(a, b time.Time) bool {
	return DateOf(a).Before(DateOf(b))
}

// After reports whether the civil date of a is later than that of b
func After(a, b time.Time) bool {
	return DateOf(a).After(DateOf(b))
}

// NextDay returns the following calendar date.
// AddDate on a UTC midnight never drifts across DST boundaries.
func NextDay(date time.Time) time.Time {
	return DateOf(date).AddDate(0, 0, 1)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// Key returns the map key used to index a date
func Key(date time.Time) string {
	return date.Format(ISODate)
}

// Format formats a date as YYYY-MM-DD; the zero time formats as ""
func Format(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(ISODate)
}

// ParseDate parses date string in various formats and returns the civil date
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		ISODate,
		"02.01.2006",
		"20060102",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return DateOf(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dateStr)
}

// MustParse parses an ISO date and panics on failure. Intended for tests and constants.
func MustParse(dateStr string) time.Time {
	t, err := ParseDate(dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// Today returns today's date
func Today() time.Time {
	return DateOf(time.Now())
}
