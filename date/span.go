package date

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Range is the days From..To, both included.
type Range struct{ From, To Date }

// Contains reports whether d is in r.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// Years returns the Range covering the calendar years from..to, both included.
func Years(from, to int) Range {
	return Range{From: New(from, 1, 1), To: New(to, 12, 31)}
}

var spanRE = regexp.MustCompile(`^(\d+)([dwmqy])$`)

// spanUnits are the Period letters of the span notation.
const spanUnits = "dwmqy"

// Span is a length of time counted back from a day, written like "10y",
// "6m" or "30d".
type Span struct {
	N    int
	Unit Period
}

// ParseSpan parses a span in its short notation.
func ParseSpan(s string) (Span, error) {
	m := spanRE.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Span{}, fmt.Errorf("invalid span %q want format like 10y, 6m or 30d", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Span{}, fmt.Errorf("invalid span %q: %w", s, err)
	}
	return Span{N: n, Unit: Period(strings.IndexByte(spanUnits, m[2][0]))}, nil
}

func (s Span) String() string { return fmt.Sprintf("%d%c", s.N, spanUnits[s.Unit]) }

// Ending returns the Range of length s that ends on d.
func (s Span) Ending(d Date) Range {
	from := d
	switch s.Unit {
	case Daily:
		from = d.Add(-s.N)
	case Weekly:
		from = d.Add(-7 * s.N)
	case Monthly:
		from = New(d.y, d.m-time.Month(s.N), d.d)
	case Quarterly:
		from = New(d.y, d.m-time.Month(3*s.N), d.d)
	case Yearly:
		from = New(d.y-s.N, d.m, d.d)
	}
	return Range{From: from, To: d}
}
