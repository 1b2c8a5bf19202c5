package columns

import (
	"context"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/etnz/fins"
)

// profileColumn reads a text field of the SymbolRef.
type profileColumn struct {
	spec  fins.ColumnSpec
	field func(*fins.SymbolRef) string
}

func (c profileColumn) Spec() fins.ColumnSpec { return c.spec }

func (c profileColumn) Value(ctx context.Context, src fins.DataSource, sym fins.Symbol) fins.Value {
	ref, err := src.Resolve(ctx, sym)
	if err != nil {
		return fins.None()
	}
	v := c.field(ref)
	if v == "" {
		return fins.None()
	}
	return fins.Text(v)
}

func profile(name, description string, field func(*fins.SymbolRef) string) Definition {
	return Definition{
		Name:        name,
		Description: description,
		build: func(_ *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
			return profileColumn{spec: spec, field: field}, nil
		},
	}
}

func profiles() []Definition {
	return []Definition{
		profile("name", "Name of the company or fund.", func(r *fins.SymbolRef) string { return r.Name }),
		profile("exchange", "Exchange where the symbol is listed.", func(r *fins.SymbolRef) string { return r.Exchange }),
		profile("currency", "Trading currency.", func(r *fins.SymbolRef) string { return r.Currency }),
		profile("sector", "Sector of activity.", func(r *fins.SymbolRef) string { return r.Sector }),
		profile("industry", "Industry, within the sector.", func(r *fins.SymbolRef) string { return r.Industry }),
		profile("country", "Country of the company.", func(r *fins.SymbolRef) string { return r.Country }),
		profile("isin", "International Securities Identification Number.", func(r *fins.SymbolRef) string { return r.ISIN }),
		profile("type", "Kind of security: Common Stock, ETF...", func(r *fins.SymbolRef) string { return r.Type }),
	}
}

// fundamentalColumn selects a number in the fundamentals document.
type fundamentalColumn struct {
	spec fins.ColumnSpec
	path string
}

func (c fundamentalColumn) Spec() fins.ColumnSpec { return c.spec }

func (c fundamentalColumn) Value(ctx context.Context, src fins.DataSource, sym fins.Symbol) fins.Value {
	ref, err := src.Resolve(ctx, sym)
	if err != nil || ref.Fundamentals == nil {
		return fins.None()
	}
	f, ok := lookup(c.path, ref.Fundamentals)
	if !ok {
		return fins.None()
	}
	return fins.Number(f)
}

// lookup returns the number at path in doc. Providers sometimes encode numbers
// as strings.
func lookup(path string, doc map[string]any) (float64, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, false
	}
	// jsonpath may return a list of one answer
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return 0, false
		}
		v = list[0]
	}
	switch v := v.(type) {
	case float64:
		return v, true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}

func fundamental(name, description, path string) Definition {
	return Definition{
		Name:        name,
		Description: description,
		build: func(_ *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
			return fundamentalColumn{spec: spec, path: path}, nil
		},
	}
}

// peTrendColumn compares the forward and trailing P/E: -1 when earnings are
// expected to grow a lot, +1 when they are expected to collapse.
type peTrendColumn struct{ spec fins.ColumnSpec }

func (c peTrendColumn) Spec() fins.ColumnSpec { return c.spec }

func (c peTrendColumn) Value(ctx context.Context, src fins.DataSource, sym fins.Symbol) fins.Value {
	ref, err := src.Resolve(ctx, sym)
	if err != nil || ref.Fundamentals == nil {
		return fins.None()
	}
	ttm, ok1 := lookup("$.Highlights.PERatio", ref.Fundamentals)
	fwd, ok2 := lookup("$.Valuation.ForwardPE", ref.Fundamentals)
	if !ok1 || !ok2 || ttm+fwd == 0 {
		return fins.None()
	}
	return fins.Number((fwd - ttm) / (fwd + ttm))
}

func fundamentals() []Definition {
	pe := Definition{
		Name:        "pe",
		Description: "Price to earnings ratio.",
		Params:      []Param{{Name: "mode", Description: "ttm for trailing twelve months, forward for the estimated earnings", Default: "ttm"}},
		build: func(_ *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
			switch mode := spec.Params["mode"]; mode {
			case "", "ttm":
				return fundamentalColumn{spec: spec, path: "$.Highlights.PERatio"}, nil
			case "forward":
				return fundamentalColumn{spec: spec, path: "$.Valuation.ForwardPE"}, nil
			default:
				return nil, fmt.Errorf("column pe: invalid mode %q want ttm or forward", mode)
			}
		},
	}
	return []Definition{
		fundamental("mcap", "Market capitalization.", "$.Highlights.MarketCapitalization"),
		pe,
		fundamental("peg", "Price to earnings to growth ratio.", "$.Highlights.PEGRatio"),
		fundamental("roe", "Return on equity, trailing twelve months.", "$.Highlights.ReturnOnEquityTTM"),
		fundamental("npm", "Net profit margin.", "$.Highlights.ProfitMargin"),
		fundamental("div", "Dividend yield.", "$.Highlights.DividendYield"),
		fundamental("eps", "Earnings per share.", "$.Highlights.EarningsShare"),
		{
			Name:        "pe_trend",
			Description: "Trend of the earnings between -1 (growing) and +1 (shrinking), from the forward and trailing P/E.",
			build: func(_ *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
				return peTrendColumn{spec: spec}, nil
			},
		},
	}
}
