// Package calendar provides a calendar-day value used to date cache fetches.
// Staleness is decided by comparing calendar dates, not elapsed duration, so
// the type deliberately carries no time-of-day or zone information.
package calendar

import (
	"fmt"
	"time"
)

// dayLayout is the wire and display format for a calendar day.
const dayLayout = "2006-01-02"

// Day is a calendar date without a time component. The zero value is the
// zero date and orders before any real day.
type Day struct {
	// Year is the four-digit year.
	Year int
	// Month is the month of the year.
	Month time.Month
	// DayOfMonth is the day within the month.
	DayOfMonth int
}

// DayOf extracts the calendar day from a point in time, in that instant's
// location.
func DayOf(t time.Time) Day {
	year, month, day := t.Date()

	return Day{Year: year, Month: month, DayOfMonth: day}
}

// Parse reads a day in YYYY-MM-DD form.
func Parse(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day: %w", err)
	}

	return DayOf(t), nil
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}

	if d.Month != other.Month {
		return d.Month > other.Month
	}

	return d.DayOfMonth > other.DayOfMonth
}

// Equal reports whether two days name the same calendar date.
func (d Day) Equal(other Day) bool {
	return d == other
}

// IsZero reports whether the day is the zero value.
func (d Day) IsZero() bool {
	return d == Day{}
}

// String renders the day as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.DayOfMonth)
}

// MarshalText encodes the day as YYYY-MM-DD for JSON and YAML.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD day.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
