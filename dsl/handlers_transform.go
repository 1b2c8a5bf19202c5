package dsl

import (
	"errors"
	"fmt"

	"github.com/etnz/fins"
)

// Pseudo attributes available on every basket.
const (
	attrWeight = "weight"
	attrTicker = "ticker"
)

// attribute returns the values of attribute name for the symbols of b.
//
// The attribute is a column of b, a pseudo attribute or a known column type.
// In the last case the column is attached to the returned basket.
func (e *Env) attribute(b *fins.Basket, name string) (*fins.Basket, map[fins.Symbol]fins.Value, error) {
	if spec, ok := b.Column(name); ok {
		vals, err := e.Values(b, spec)
		return b, vals, err
	}
	switch name {
	case attrWeight:
		vals := make(map[fins.Symbol]fins.Value, b.Len())
		for _, it := range b.Items() {
			vals[it.Symbol] = fins.Number(it.Weight)
		}
		return b, vals, nil
	case attrTicker:
		vals := make(map[fins.Symbol]fins.Value, b.Len())
		for _, sym := range b.Symbols() {
			vals[sym] = fins.Text(sym.Ticker)
		}
		return b, vals, nil
	}
	spec := fins.ColumnSpec{Type: name}
	vals, err := e.Values(b, spec)
	if errors.Is(err, fins.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unknown attribute %q", fins.ErrNotFound, name)
	}
	if err != nil {
		return nil, nil, err
	}
	return b.WithColumn(spec).WithValues(spec.Name(), vals), vals, nil
}

func execSort(n Node, env *Env) (fins.Output, error) {
	s := n.(*SortNode)
	in, _ := env.Input.Basket()
	b, vals, err := env.attribute(in, s.Attribute)
	if err != nil {
		return fins.Output{}, err
	}
	out := b.SortBy(func(sym fins.Symbol) fins.Value { return vals[sym] }, s.Ascending)
	return fins.NewOutput(out), nil
}

func execFilter(n Node, env *Env) (fins.Output, error) {
	f := n.(*FilterNode)
	in, _ := env.Input.Basket()

	target := f.Value
	if f.Ref != "" {
		v, err := env.scalar(f.Ref)
		if err != nil {
			return fins.Output{}, err
		}
		target = v
	}

	b, vals, err := env.attribute(in, f.Attribute)
	if err != nil {
		return fins.Output{}, err
	}
	out := b.Filter(func(it fins.BasketItem) bool { return match(vals[it.Symbol], f.Op, target) })
	return fins.NewOutput(out).WithLog(fmt.Sprintf("%d of %d items kept", out.Len(), in.Len())), nil
}

// scalar reads a number or a text stored at path.
func (e *Env) scalar(path string) (fins.Value, error) {
	v, ok, err := e.Storage().Get(path)
	if err != nil {
		return fins.None(), fmt.Errorf("storage error: %w", err)
	}
	if !ok {
		return fins.None(), fmt.Errorf("%w: variable %s", fins.ErrNotFound, path)
	}
	switch d := v.Data.(type) {
	case float64:
		return fins.Number(d), nil
	case string:
		return fins.Text(d), nil
	default:
		return fins.None(), fmt.Errorf("%w: %s is not a number or a text", fins.ErrTypeMismatch, path)
	}
}

// match reports whether v op target holds. Missing values and values of a
// different kind never match.
func match(v fins.Value, op string, target fins.Value) bool {
	c, ok := v.Compare(target)
	if !ok {
		return false
	}
	switch op {
	case ">":
		return c > 0
	case "<":
		return c < 0
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	case "=":
		return c == 0
	case "!=":
		return c != 0
	}
	return false
}

func execColumn(n Node, env *Env) (fins.Output, error) {
	c := n.(*ColumnNode)
	in, _ := env.Input.Basket()
	if _, err := env.Columns().Column(c.Spec); err != nil {
		return fins.Output{}, err
	}
	if _, _, err := c.Spec.Range(env.Today()); err != nil {
		return fins.Output{}, fmt.Errorf("column %s: %w", c.Spec.Name(), err)
	}
	return fins.NewOutput(in.WithColumn(c.Spec)), nil
}
