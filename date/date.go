// Package date implements calendar days, periods and daily series of values.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// layout reads "2025-7-1" as well as "2025-07-01".
const layout = "2006-1-2"

// Date is a calendar day. The zero Date is not a valid day.
//
// Dates are comparable with ==.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns the Date of year, month and day, normalized like time.Date:
// New(2025, 13, 0) is 2025-12-31.
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// Today returns the current day in the local time zone.
func Today() Date { return New(time.Now().Date()) }

// Parse parses a day like "2025-07-01" or "2025-7-1".
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return New(t.Date()), nil
}

func (d Date) utc() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Year returns the year of d.
func (d Date) Year() int { return d.y }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Compare returns -1, 0 or +1 if d is before, on or after x.
func (d Date) Compare(x Date) int { return d.utc().Compare(x.utc()) }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.Compare(x) > 0 }

// Add returns d shifted by days.
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

// Sub returns the number of days from x to d.
func (d Date) Sub(x Date) int { return int(d.utc().Sub(x.utc()).Hours() / 24) }

// EndOfMonth returns the last day of the month of d.
func (d Date) EndOfMonth() Date { return New(d.y, d.m+1, 0) }

// String returns d as "2006-01-02".
func (d Date) String() string { return d.utc().Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
