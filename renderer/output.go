package renderer

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"

	"github.com/etnz/fins"
)

// Options holds configuration for rendering an Output.
type Options struct {
	Log      bool // Render the log of executed commands.
	Metadata bool // Render the metadata.
	// Currency returns the trading currency of a symbol, used by money columns.
	Currency func(fins.Symbol) string
	// Money reports whether a column holds amounts in the symbol's currency.
	Money func(fins.ColumnSpec) bool
}

// OutputMarkdown renders an Output to markdown.
func OutputMarkdown(out fins.Output, opts Options) string {
	r := &outputRenderer{Builder: &strings.Builder{}, opts: opts}
	switch out.Kind() {
	case fins.KindError:
		r.Printf("**Error:** %s\n", out.Err())
	case fins.KindVoid:
	case fins.KindBasket:
		b, _ := out.Basket()
		r.renderBasket(b)
	case fins.KindNumber:
		f, _ := out.Number()
		r.Printf("%s\n", Number(f))
	case fins.KindText:
		s, _ := out.Text()
		r.Printf("%s\n", s)
	case fins.KindBoolean:
		v, _ := out.Bool()
		r.Printf("%t\n", v)
	}

	if opts.Metadata {
		conditionalBlock(r, func(w *strings.Builder) bool {
			md := out.Metadata()
			fmt.Fprintf(w, "\n### Metadata\n\n")
			for _, k := range slices.Sorted(maps.Keys(md)) {
				fmt.Fprintf(w, "- %s: %v\n", k, md[k])
			}
			return len(md) > 0
		})
	}
	if opts.Log {
		conditionalBlock(r, func(w *strings.Builder) bool {
			log := out.Log()
			fmt.Fprintf(w, "\n### Log\n\n")
			for i, line := range log {
				fmt.Fprintf(w, "%d. %s\n", i+1, line)
			}
			return len(log) > 0
		})
	}
	return r.String()
}

// outputRenderer writes markdown into its buffer.
type outputRenderer struct {
	*strings.Builder
	opts Options
}

// Printf formats according to a format specifier and writes to the renderer's buffer.
func (r *outputRenderer) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}

func (r *outputRenderer) renderBasket(b *fins.Basket) {
	if b.Name != "" {
		r.Printf("## %s\n\n", b.Name)
	}
	if b.Note != "" {
		r.Printf("%s\n\n", b.Note)
	}
	if b.Len() == 0 {
		r.Printf("*empty basket*\n")
		return
	}
	items := b.Items()
	weighted := slices.ContainsFunc(items, func(it fins.BasketItem) bool { return it.Weight != 1 })
	cols := b.Columns()

	r.Printf("| Ticker |")
	if weighted {
		r.Printf(" Weight |")
	}
	for _, c := range cols {
		r.Printf(" %s |", c.Name())
	}
	r.Printf("\n|:---|")
	if weighted {
		r.Printf("---:|")
	}
	for range cols {
		r.Printf("---:|")
	}
	r.Printf("\n")

	total := 0.0
	for _, it := range items {
		total += it.Weight
		r.Printf("| %s |", it.Symbol)
		if weighted {
			r.Printf(" %s |", humanize.FtoaWithDigits(it.Weight, 4))
		}
		for _, c := range cols {
			r.Printf(" %s |", r.value(c, it.Symbol, b.Value(c.Name(), it.Symbol)))
		}
		r.Printf("\n")
	}
	r.Printf("\n%d items", b.Len())
	if weighted {
		r.Printf(", total weight %s", humanize.FtoaWithDigits(total, 4))
	}
	r.Printf("\n")
}

func (r *outputRenderer) value(c fins.ColumnSpec, sym fins.Symbol, v fins.Value) string {
	if f, ok := v.Float(); ok && r.opts.Money != nil && r.opts.Currency != nil && r.opts.Money(c) {
		if cur := r.opts.Currency(sym); cur != "" && money.GetCurrency(cur) != nil {
			return money.NewFromFloat(f, cur).Display()
		}
	}
	return Value(v)
}

// Value formats a column value: large numbers with a suffix, missing values as "-".
func Value(v fins.Value) string {
	if f, ok := v.Float(); ok {
		return Number(f)
	}
	if s, ok := v.Str(); ok {
		return strings.ReplaceAll(s, "|", `\|`)
	}
	return "-"
}

// financial suffixes of the SI prefixes
var suffixes = map[string]string{"k": "K", "M": "M", "G": "B", "T": "T", "P": "P"}

// Number formats f with 4 significant decimals, or with a K, M, B or T suffix
// from a million.
func Number(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	if math.Abs(f) >= 1e6 {
		v, prefix := humanize.ComputeSI(f)
		if s, ok := suffixes[prefix]; ok {
			return humanize.FtoaWithDigits(v, 2) + s
		}
	}
	return humanize.FtoaWithDigits(f, 4)
}
