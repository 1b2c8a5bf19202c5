package dsl

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/fins"
)

func execInfo(n Node, env *Env) (fins.Output, error) {
	info := n.(*InfoNode)
	switch t := info.Target.(type) {
	case *SymbolNode:
		ref, err := env.Source().Resolve(env.Context(), t.Symbol)
		if err != nil {
			return fins.Output{}, err
		}
		return fins.NewOutput(symbolInfo(ref)), nil
	case *VariableNode:
		v, ok, err := env.Storage().Get(t.Path)
		if err != nil {
			return fins.Output{}, fmt.Errorf("storage error: %w", err)
		}
		if !ok {
			return fins.Output{}, fmt.Errorf("%w: variable %s", fins.ErrNotFound, t.Path)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "path: %s\n", v.Path)
		fmt.Fprintf(&b, "locked: %t\n", v.Locked)
		for _, k := range slices.Sorted(maps.Keys(v.Metadata)) {
			fmt.Fprintf(&b, "%s: %v\n", k, v.Metadata[k])
		}
		if bk, ok := v.Data.(*fins.Basket); ok {
			b.WriteString(basketInfo(bk))
		}
		return fins.NewOutput(b.String()), nil
	}

	switch env.Input.Kind() {
	case fins.KindVoid:
		return fins.Output{}, syntaxErrorf(n.Span(), "missing input: info needs a symbol, a variable or an input")
	case fins.KindBasket:
		b, _ := env.Input.Basket()
		return fins.NewOutput(basketInfo(b)), nil
	default:
		return fins.NewOutput(fmt.Sprintf("%s: %v\n", env.Input.Kind(), env.Input.Data())), nil
	}
}

func symbolInfo(ref *fins.SymbolRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", ref.Symbol, ref.Name)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	field("type", ref.Type)
	field("exchange", ref.Exchange)
	field("currency", ref.Currency)
	field("country", ref.Country)
	field("sector", ref.Sector)
	field("industry", ref.Industry)
	field("isin", ref.ISIN)
	return b.String()
}

func basketInfo(bk *fins.Basket) string {
	var b strings.Builder
	if bk.Name != "" {
		fmt.Fprintf(&b, "name: %s\n", bk.Name)
	}
	var total float64
	for _, it := range bk.Items() {
		total += it.Weight
	}
	fmt.Fprintf(&b, "items: %d\n", bk.Len())
	fmt.Fprintf(&b, "total weight: %g\n", total)
	if cols := bk.Columns(); len(cols) > 0 {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, "columns: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}
