// Package columns is the catalogue of column types.
//
// Profile columns read the resolved SymbolRef, fundamental columns select a
// field of the fundamentals document with a jsonpath expression, and price
// columns compute indicators from the closing prices.
package columns

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// Param documents a column parameter.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
}

// Definition describes a column type.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`
	// Ranged columns accept a [start:end] year range or a period.
	Ranged bool `json:"ranged,omitempty"`
	// Currency columns hold amounts in the symbol's currency.
	Currency bool `json:"currency,omitempty"`

	build func(c *Catalog, spec fins.ColumnSpec) (fins.Column, error)
}

// Catalog is a fins.ColumnFactory over a set of definitions.
type Catalog struct {
	defs  map[string]Definition
	today func() date.Date
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithToday sets the clock used to compute the date range of price columns.
func WithToday(today func() date.Date) Option { return func(c *Catalog) { c.today = today } }

// Catalogue returns the catalog of every built-in column type.
func Catalogue(opts ...Option) *Catalog {
	c := &Catalog{defs: make(map[string]Definition), today: date.Today}
	for _, opt := range opts {
		opt(c)
	}
	for _, def := range slices.Concat(profiles(), fundamentals(), indicators()) {
		if err := c.register(def); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Catalog) register(def Definition) error {
	if _, exists := c.defs[def.Name]; exists {
		return fmt.Errorf("column type %q already registered", def.Name)
	}
	c.defs[def.Name] = def
	return nil
}

// Definitions returns the definitions sorted by name.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.defs))
	for _, name := range slices.Sorted(maps.Keys(c.defs)) {
		defs = append(defs, c.defs[name])
	}
	return defs
}

// Definition returns the definition of the column type name.
func (c *Catalog) Definition(name string) (Definition, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// Column returns the column described by spec.
func (c *Catalog) Column(spec fins.ColumnSpec) (fins.Column, error) {
	def, ok := c.defs[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: column type %q", fins.ErrNotFound, spec.Type)
	}
	params, err := def.params(spec.Params)
	if err != nil {
		return nil, err
	}
	spec.Params = params
	if !def.Ranged && (spec.StartYear != 0 || spec.EndYear != 0 || spec.Period != "") {
		return nil, fmt.Errorf("column %s does not take a date range", spec.Type)
	}
	if _, _, err := spec.Range(c.today()); err != nil {
		return nil, fmt.Errorf("column %s: %w", spec.Type, err)
	}
	return def.build(c, spec)
}

// params maps positional arguments to the declared parameters and rejects
// unknown ones.
func (d Definition) params(in map[string]string) (map[string]string, error) {
	if len(in) == 0 {
		return in, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		name := k
		if i, ok := positional(k); ok {
			if i >= len(d.Params) {
				return nil, fmt.Errorf("column %s takes %d arguments", d.Name, len(d.Params))
			}
			name = d.Params[i].Name
		} else if !slices.ContainsFunc(d.Params, func(p Param) bool { return p.Name == k }) {
			return nil, fmt.Errorf("column %s has no parameter %q", d.Name, k)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("column %s: parameter %q given twice", d.Name, name)
		}
		out[name] = v
	}
	return out, nil
}

func positional(key string) (int, bool) {
	if len(key) < 4 || key[:3] != "arg" {
		return 0, false
	}
	i, err := strconv.Atoi(key[3:])
	return i, err == nil
}

// intParam returns the positive integer parameter name of spec, or def.
func intParam(spec fins.ColumnSpec, name string, def int) (int, error) {
	s, ok := spec.Params[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("column %s: %s must be a positive integer, got %q", spec.Type, name, s)
	}
	return n, nil
}
