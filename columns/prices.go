package columns

import (
	"context"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// tradingDays is the number of trading days in a year.
const tradingDays = 252

// priceColumn computes a number from the closing prices over a date range.
type priceColumn struct {
	spec    fins.ColumnSpec
	rg      date.Range
	compute func(h *date.History[float64]) (float64, bool)
}

func (c priceColumn) Spec() fins.ColumnSpec { return c.spec }

func (c priceColumn) Value(ctx context.Context, src fins.DataSource, sym fins.Symbol) fins.Value {
	h, err := src.Prices(ctx, sym, c.rg)
	if err != nil || h == nil || h.Len() == 0 {
		return fins.None()
	}
	v, ok := c.compute(h)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return fins.None()
	}
	return fins.Number(v)
}

// indicator returns a definition computing over the spec range, or over span
// ending today when the spec has none.
func indicator(name, description string, span date.Span, params []Param, compute func(spec fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error)) Definition {
	return Definition{
		Name:        name,
		Description: description,
		Params:      params,
		Ranged:      true,
		build: func(c *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
			fn, err := compute(spec)
			if err != nil {
				return nil, err
			}
			today := c.today()
			rg, ok, err := spec.Range(today)
			if err != nil {
				return nil, err
			}
			if !ok {
				rg = span.Ending(today)
			}
			return priceColumn{spec: spec, rg: rg, compute: fn}, nil
		},
	}
}

func indicators() []Definition {
	cagr := indicator("cagr", "Compound annual growth rate of the price.", date.Span{N: 5, Unit: date.Yearly},
		[]Param{{Name: "years", Description: "number of years ending today", Default: "5"}},
		func(spec fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) {
			return CAGR, nil
		})
	// years= is a shortcut for a period
	build := cagr.build
	cagr.build = func(c *Catalog, spec fins.ColumnSpec) (fins.Column, error) {
		years, err := intParam(spec, "years", 0)
		if err != nil {
			return nil, err
		}
		if years > 0 && spec.Period == "" && spec.StartYear == 0 && spec.EndYear == 0 {
			spec.Period = date.Span{N: years, Unit: date.Yearly}.String()
		}
		return build(c, spec)
	}

	length := func(def string) []Param {
		return []Param{{Name: "length", Description: "number of days of the indicator", Default: def}}
	}
	return []Definition{
		indicator("price", "Last closing price.", date.Span{N: 10, Unit: date.Daily}, nil,
			func(fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) { return last, nil }),
		cagr,
		indicator("ret", "Total return of the price over the period.", date.Span{N: 1, Unit: date.Yearly}, nil,
			func(fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) { return Return, nil }),
		indicator("vol", "Annualized volatility of the daily returns.", date.Span{N: 1, Unit: date.Yearly}, nil,
			func(fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) { return Volatility, nil }),
		indicator("rsi", "Relative strength index.", date.Span{N: 1, Unit: date.Yearly}, length("14"),
			func(spec fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) {
				n, err := intParam(spec, "length", 14)
				if err != nil {
					return nil, err
				}
				return func(h *date.History[float64]) (float64, bool) { return RSI(h.Slice(), n) }, nil
			}),
		indicator("sma", "Simple moving average of the price.", date.Span{N: 1, Unit: date.Yearly}, length("50"),
			func(spec fins.ColumnSpec) (func(*date.History[float64]) (float64, bool), error) {
				n, err := intParam(spec, "length", 50)
				if err != nil {
					return nil, err
				}
				return func(h *date.History[float64]) (float64, bool) { return SMA(h.Slice(), n) }, nil
			}),
	}
}

func last(h *date.History[float64]) (float64, bool) {
	_, v := h.Latest()
	return v, true
}

// CAGR returns the compound annual growth rate between the first and the last
// price of h. Under a quarter it returns the simple return.
func CAGR(h *date.History[float64]) (float64, bool) {
	from, start := h.First()
	to, end := h.Latest()
	if start <= 0 || end <= 0 {
		return 0, false
	}
	years := float64(to.Sub(from)) / 365.25
	if years < 0.25 {
		return end/start - 1, true
	}
	return math.Pow(end/start, 1/years) - 1, true
}

// Return returns the total return between the first and the last price of h.
func Return(h *date.History[float64]) (float64, bool) {
	_, start := h.First()
	_, end := h.Latest()
	if start <= 0 {
		return 0, false
	}
	return end/start - 1, true
}

// Volatility returns the annualized standard deviation of the daily log
// returns of h.
func Volatility(h *date.History[float64]) (float64, bool) {
	closes := h.Slice()
	if len(closes) < 3 {
		return 0, false
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, false
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDays), true
}

// RSI returns the last relative strength index of closes.
func RSI(closes []float64, length int) (float64, bool) {
	if len(closes) < length+1 {
		return 0, false
	}
	rsi := talib.Rsi(closes, length)
	if len(rsi) == 0 {
		return 0, false
	}
	return rsi[len(rsi)-1], true
}

// SMA returns the last simple moving average of closes.
func SMA(closes []float64, length int) (float64, bool) {
	if len(closes) < length {
		return 0, false
	}
	sma := talib.Sma(closes, length)
	if len(sma) == 0 {
		return 0, false
	}
	return sma[len(sma)-1], true
}
