package fins

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/fins/date"
)

// ColumnSpec describes a column attached to a basket.
//
// A spec is pure data: it is stored with the basket and turned into a Column
// by a ColumnFactory when values are needed.
type ColumnSpec struct {
	Type      string            `json:"type"`
	Alias     string            `json:"alias,omitempty"`
	StartYear int               `json:"start_year,omitempty"`
	EndYear   int               `json:"end_year,omitempty"`
	Period    string            `json:"period,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// Name returns the alias if any, the type otherwise.
func (c ColumnSpec) Name() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Type
}

// Key returns a canonical representation of the computation described by c,
// ignoring the alias. Two specs with the same key compute the same values.
func (c ColumnSpec) Key() string {
	var b strings.Builder
	b.WriteString(c.Type)
	if c.StartYear != 0 || c.EndYear != 0 {
		fmt.Fprintf(&b, "[%d:%d]", c.StartYear, c.EndYear)
	}
	if c.Period != "" {
		b.WriteString(" " + c.Period)
	}
	if len(c.Params) > 0 {
		b.WriteString("(")
		for i, k := range slices.Sorted(maps.Keys(c.Params)) {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k + "=" + c.Params[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// String returns the spec in the command notation.
func (c ColumnSpec) String() string {
	if c.Alias == "" {
		return c.Key()
	}
	return "|" + c.Alias + " " + c.Key()
}

// Range returns the date range the column covers when it is computed on day.
// Explicit years win over the period; ok is false if neither is set.
func (c ColumnSpec) Range(day date.Date) (r date.Range, ok bool, err error) {
	switch {
	case c.StartYear != 0 || c.EndYear != 0:
		start, end := c.StartYear, c.EndYear
		if start == 0 {
			start = end
		}
		if end == 0 {
			end = day.Year()
		}
		if end < start {
			return r, false, fmt.Errorf("invalid year range %d:%d", c.StartYear, c.EndYear)
		}
		r = date.Years(start, end)
		if r.To.After(day) {
			r.To = day
		}
		return r, true, nil
	case c.Period != "":
		span, err := date.ParseSpan(c.Period)
		if err != nil {
			return r, false, err
		}
		return span.Ending(day), true, nil
	default:
		return r, false, nil
	}
}

// Column computes a value for each symbol of a basket.
//
// Value must return None() when the data is missing, never an error.
type Column interface {
	Spec() ColumnSpec
	Value(ctx context.Context, src DataSource, sym Symbol) Value
}

// ColumnFactory builds columns from their spec.
type ColumnFactory interface {
	// Column returns an error wrapping ErrNotFound for unknown types.
	Column(spec ColumnSpec) (Column, error)
}

// DataSource provides market data about symbols.
//
// Implementations must be safe for concurrent use. Unknown symbols are
// reported with an error wrapping ErrNotFound.
type DataSource interface {
	Resolve(ctx context.Context, sym Symbol) (*SymbolRef, error)
	Prices(ctx context.Context, sym Symbol, r date.Range) (*date.History[float64], error)
	Holdings(ctx context.Context, sym Symbol) ([]BasketItem, error)
}
