package date

import (
	"fmt"
	"strings"
)

// Period is a calendar unit.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

var (
	periodNames = [...]string{"daily", "weekly", "monthly", "quarterly", "yearly"}
	units       = [...]string{"day", "week", "month", "quarter", "year"}
)

func (p Period) String() string {
	if p < Daily || p > Yearly {
		return fmt.Sprintf("period(%d)", int(p))
	}
	return periodNames[p]
}

// ParsePeriod parses "monthly" or "month" into Monthly, and so on.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range periodNames {
		if s == name || s == units[p] {
			return Period(p), nil
		}
	}
	return Daily, fmt.Errorf("unknown period %q", s)
}

// Key names the period of kind p that contains d: "2025-06-30", "2025-W27",
// "2025-06", "2025-Q2" or "2025". Two days share a key iff they are in the
// same period.
func (p Period) Key(d Date) string {
	switch p {
	case Weekly:
		y, w := d.utc().ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Monthly:
		return fmt.Sprintf("%d-%02d", d.y, d.m)
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", d.y, (d.m-1)/3+1)
	case Yearly:
		return fmt.Sprint(d.y)
	default:
		return d.String()
	}
}
