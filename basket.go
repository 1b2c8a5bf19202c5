package fins

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// BasketItem is a weighted symbol in a basket.
type BasketItem struct {
	Symbol Symbol  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// Item returns a BasketItem with the default weight of 1.
func Item(sym Symbol) BasketItem { return BasketItem{Symbol: sym, Weight: 1} }

// Basket is an ordered collection of weighted symbols, annotated with columns.
//
// A Basket holds at most one item per Symbol. All operations return a new
// Basket and never modify their receiver or arguments.
type Basket struct {
	Name string
	Note string

	items   []BasketItem
	columns []ColumnSpec
	// values caches computed column values: column name -> symbol -> value.
	values map[string]map[Symbol]Value
}

// NewBasket returns a basket with the given items, in order. Items with the
// same Symbol are merged and their weights summed.
func NewBasket(items ...BasketItem) *Basket {
	b := &Basket{}
	for _, it := range items {
		b.add(it)
	}
	return b
}

// NewBasketOf returns a basket of the given symbols, each with weight 1.
func NewBasketOf(symbols ...Symbol) *Basket {
	b := &Basket{}
	for _, sym := range symbols {
		b.add(Item(sym))
	}
	return b
}

// add adds an item, summing weights of an existing symbol.
func (b *Basket) add(it BasketItem) {
	if i := b.index(it.Symbol); i >= 0 {
		b.items[i].Weight += it.Weight
		return
	}
	b.items = append(b.items, it)
}

func (b *Basket) index(sym Symbol) int {
	return slices.IndexFunc(b.items, func(it BasketItem) bool { return it.Symbol == sym })
}

// clone returns a copy of b sharing no mutable state.
func (b *Basket) clone() *Basket {
	c := &Basket{
		Name:    b.Name,
		Note:    b.Note,
		items:   slices.Clone(b.items),
		columns: slices.Clone(b.columns),
	}
	if b.values != nil {
		c.values = make(map[string]map[Symbol]Value, len(b.values))
		for name, vals := range b.values {
			c.values[name] = maps.Clone(vals)
		}
	}
	return c
}

// Len returns the number of items.
func (b *Basket) Len() int { return len(b.items) }

// Items returns a copy of the items, in order.
func (b *Basket) Items() []BasketItem { return slices.Clone(b.items) }

// Symbols returns the symbols of the basket, in order.
func (b *Basket) Symbols() []Symbol {
	out := make([]Symbol, len(b.items))
	for i, it := range b.items {
		out[i] = it.Symbol
	}
	return out
}

// Contains reports whether sym is in the basket.
func (b *Basket) Contains(sym Symbol) bool { return b.index(sym) >= 0 }

// Weight returns the weight of sym, and false if sym is not in the basket.
func (b *Basket) Weight(sym Symbol) (float64, bool) {
	if i := b.index(sym); i >= 0 {
		return b.items[i].Weight, true
	}
	return 0, false
}

// Columns returns a copy of the column specs, in order.
func (b *Basket) Columns() []ColumnSpec { return slices.Clone(b.columns) }

// Column returns the column spec named name.
func (b *Basket) Column(name string) (ColumnSpec, bool) {
	for _, c := range b.columns {
		if c.Name() == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// WithColumn returns a copy of b with the column attached. A column with the
// same name is replaced, and its cached values dropped.
func (b *Basket) WithColumn(spec ColumnSpec) *Basket {
	c := b.clone()
	name := spec.Name()
	if i := slices.IndexFunc(c.columns, func(s ColumnSpec) bool { return s.Name() == name }); i >= 0 {
		c.columns[i] = spec
		delete(c.values, name)
		return c
	}
	c.columns = append(c.columns, spec)
	return c
}

// Value returns the cached value of column name for sym.
func (b *Basket) Value(name string, sym Symbol) Value {
	return b.values[name][sym]
}

// HasValue reports whether a value of column name is cached for sym.
func (b *Basket) HasValue(name string, sym Symbol) bool {
	_, ok := b.values[name][sym]
	return ok
}

// WithValues returns a copy of b with the given values cached for column name.
func (b *Basket) WithValues(name string, vals map[Symbol]Value) *Basket {
	c := b.clone()
	if c.values == nil {
		c.values = make(map[string]map[Symbol]Value)
	}
	m := c.values[name]
	if m == nil {
		m = make(map[Symbol]Value, len(vals))
		c.values[name] = m
	}
	for sym, v := range vals {
		if c.Contains(sym) {
			m[sym] = v
		}
	}
	return c
}

// keepValues drops cached values of symbols or columns no longer in b.
func (b *Basket) keepValues() {
	for name, vals := range b.values {
		if _, ok := b.Column(name); !ok {
			delete(b.values, name)
			continue
		}
		for sym := range vals {
			if !b.Contains(sym) {
				delete(vals, sym)
			}
		}
	}
}

// mergeColumns adds to b the columns of o whose names are not in b yet.
func (b *Basket) mergeColumns(o *Basket) {
	for _, spec := range o.columns {
		name := spec.Name()
		if existing, ok := b.Column(name); ok {
			// Same computation: values computed on o are valid for b.
			if existing.Key() == spec.Key() {
				b.copyValues(name, o.values[name])
			}
			continue
		}
		b.columns = append(b.columns, spec)
		b.copyValues(name, o.values[name])
	}
}

func (b *Basket) copyValues(name string, vals map[Symbol]Value) {
	if len(vals) == 0 {
		return
	}
	if b.values == nil {
		b.values = make(map[string]map[Symbol]Value)
	}
	m := b.values[name]
	if m == nil {
		m = make(map[Symbol]Value)
		b.values[name] = m
	}
	for sym, v := range vals {
		if _, ok := m[sym]; !ok {
			m[sym] = v
		}
	}
}

// Union returns the items of a and b. Weights of common symbols are summed.
// Columns of a win over columns of b with the same name.
func Union(a, b *Basket) *Basket {
	c := a.clone()
	for _, it := range b.items {
		c.add(it)
	}
	c.mergeColumns(b)
	c.keepValues()
	return c
}

// Intersection returns the symbols present in both a and b, in a's order,
// with the smaller of both weights. Columns are the union of both, a winning.
func Intersection(a, b *Basket) *Basket {
	c := a.clone()
	c.items = c.items[:0]
	for _, it := range a.items {
		w, ok := b.Weight(it.Symbol)
		if !ok {
			continue
		}
		c.items = append(c.items, BasketItem{Symbol: it.Symbol, Weight: min(it.Weight, w)})
	}
	c.mergeColumns(b)
	c.keepValues()
	return c
}

// Difference returns the items of a whose symbols are not in b. Weights and
// columns are a's.
func Difference(a, b *Basket) *Basket {
	c := a.clone()
	c.items = slices.DeleteFunc(c.items, func(it BasketItem) bool { return b.Contains(it.Symbol) })
	c.keepValues()
	return c
}

// Scale returns a copy of b with every weight multiplied by k.
func (b *Basket) Scale(k float64) *Basket {
	c := b.clone()
	for i := range c.items {
		c.items[i].Weight *= k
	}
	return c
}

// SortBy returns a copy of b with items ordered by key.
//
// Missing values sort as 0, numbers sort before texts, and ties are broken by
// ticker in ascending order whatever the direction. The sort is stable.
func (b *Basket) SortBy(key func(Symbol) Value, ascending bool) *Basket {
	c := b.clone()
	keys := make(map[Symbol]Value, len(c.items))
	for _, it := range c.items {
		v := key(it.Symbol)
		if v.IsNone() {
			v = Number(0)
		}
		keys[it.Symbol] = v
	}
	slices.SortStableFunc(c.items, func(x, y BasketItem) int {
		r := compareKeys(keys[x.Symbol], keys[y.Symbol])
		if !ascending {
			r = -r
		}
		if r != 0 {
			return r
		}
		return x.Symbol.Compare(y.Symbol)
	})
	return c
}

func compareKeys(x, y Value) int {
	if c, ok := x.Compare(y); ok {
		return c
	}
	// numbers first
	return cmp.Compare(x.Kind(), y.Kind())
}

// Filter returns a copy of b with only the items for which keep returns true.
func (b *Basket) Filter(keep func(BasketItem) bool) *Basket {
	c := b.clone()
	c.items = slices.DeleteFunc(c.items, func(it BasketItem) bool { return !keep(it) })
	c.keepValues()
	return c
}

// Equal reports whether b and o have the same items in the same order.
func (b *Basket) Equal(o *Basket) bool {
	return slices.Equal(b.items, o.items)
}

// String returns a text table of the basket.
//
// Baskets where every weight is 1 are listed by ticker, other baskets by
// decreasing weight.
func (b *Basket) String() string {
	items := slices.Clone(b.items)
	unit := !slices.ContainsFunc(items, func(it BasketItem) bool { return it.Weight != 1 })
	if unit {
		slices.SortFunc(items, func(x, y BasketItem) int { return x.Symbol.Compare(y.Symbol) })
	} else {
		slices.SortStableFunc(items, func(x, y BasketItem) int { return cmp.Compare(y.Weight, x.Weight) })
	}

	var out strings.Builder
	if len(b.columns) > 0 {
		if !unit {
			fmt.Fprintf(&out, "%10s  ", "weight")
		}
		fmt.Fprintf(&out, "%-14s", "ticker")
		for _, c := range b.columns {
			fmt.Fprintf(&out, " %-14s", c.Name())
		}
		out.WriteString("\n")
	}
	for _, it := range items {
		if !unit {
			fmt.Fprintf(&out, "%10.2f  ", it.Weight)
		}
		fmt.Fprintf(&out, "%-14s", it.Symbol)
		for _, c := range b.columns {
			fmt.Fprintf(&out, " %-14s", b.Value(c.Name(), it.Symbol))
		}
		out.WriteString("\n")
	}
	return out.String()
}

type jsonBasket struct {
	Class   string                      `json:"class"`
	Name    string                      `json:"name,omitempty"`
	Note    string                      `json:"note,omitempty"`
	Items   []BasketItem                `json:"items"`
	Columns []ColumnSpec                `json:"columns,omitempty"`
	Values  map[string]map[string]Value `json:"values,omitempty"`
}

// MarshalJSON encodes the basket with its columns and cached values.
func (b *Basket) MarshalJSON() ([]byte, error) {
	j := jsonBasket{Class: "Basket", Name: b.Name, Note: b.Note, Items: b.items, Columns: b.columns}
	if j.Items == nil {
		j.Items = []BasketItem{}
	}
	for name, vals := range b.values {
		if len(vals) == 0 {
			continue
		}
		if j.Values == nil {
			j.Values = make(map[string]map[string]Value)
		}
		m := make(map[string]Value, len(vals))
		for sym, v := range vals {
			m[sym.String()] = v
		}
		j.Values[name] = m
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a basket encoded by MarshalJSON.
func (b *Basket) UnmarshalJSON(data []byte) error {
	var j jsonBasket
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	nb := NewBasket(j.Items...)
	nb.Name, nb.Note, nb.columns = j.Name, j.Note, j.Columns
	for name, vals := range j.Values {
		m := make(map[Symbol]Value, len(vals))
		for s, v := range vals {
			sym, err := ParseSymbol(s)
			if err != nil {
				return err
			}
			m[sym] = v
		}
		nb = nb.WithValues(name, m)
	}
	*b = *nb
	return nil
}
