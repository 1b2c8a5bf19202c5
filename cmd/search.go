package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/fins"
	"github.com/etnz/fins/eodhd"
)

type searchCmd struct {
	basket bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search securities by name, ticker or ISIN" }
func (*searchCmd) Usage() string {
	return `fins search [-basket] <term>...

  Searches the market data provider for securities and lists the matches
  with the symbol to use in commands.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.basket, "basket", false, "print the matching symbols as a basket")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	term := strings.Join(f.Args(), " ")
	if term == "" {
		fmt.Fprintln(os.Stderr, "Error: missing search term")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if a.eodhd == nil {
		fmt.Fprintln(os.Stderr, "Error: search needs market data, set an EODHD API key")
		return subcommands.ExitFailure
	}

	results, err := search(ctx, a.eodhd, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.basket {
		fmt.Println(basketOf(results))
		return subcommands.ExitSuccess
	}
	var md strings.Builder
	writeSearchResults(&md, results)
	if isTerminal(os.Stdout) {
		printMarkdown(os.Stdout, md.String())
	} else {
		fmt.Print(md.String())
	}
	return subcommands.ExitSuccess
}

// match is a search result with its symbol.
type match struct {
	eodhd.SearchResult
	Symbol fins.Symbol
}

// search returns the results of term that map to a valid symbol.
func search(ctx context.Context, c *eodhd.Client, term string) ([]match, error) {
	results, err := c.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	matches := make([]match, 0, len(results))
	for _, r := range results {
		sym, err := r.Symbol()
		if err != nil {
			continue
		}
		matches = append(matches, match{SearchResult: r, Symbol: sym})
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("search %q: %w", term, fins.ErrNotFound)
	}
	return matches, nil
}

// basketOf returns the distinct symbols of matches in a basket literal.
func basketOf(matches []match) string {
	seen := make(map[fins.Symbol]bool)
	var syms []string
	for _, m := range matches {
		if seen[m.Symbol] {
			continue
		}
		seen[m.Symbol] = true
		syms = append(syms, m.Symbol.String())
	}
	return strings.Join(syms, " ")
}

// writeSearchResults writes matches as a markdown table.
func writeSearchResults(w io.Writer, matches []match) {
	fmt.Fprintf(w, "| Symbol | Name | Type | Country | Currency | ISIN | MIC |\n|:---|:---|:---|:---|:---|:---|:---|\n")
	for _, m := range matches {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
			m.Symbol, m.Name, m.Type, m.Country, m.Currency, m.ISIN, m.MIC)
	}
}
