package fins

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/etnz/fins/date"
)

var tickerRE = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-]*$`)

// Symbol identifies a tradable ticker, optionally qualified by its exchange.
//
// Symbol is a comparable value, two equal symbols are the same map key.
type Symbol struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange,omitempty"`
}

// ParseSymbol parses a symbol in its "TICKER" or "TICKER:EXCHANGE" notation.
// Both parts are upper cased.
func ParseSymbol(s string) (Symbol, error) {
	ticker, exchange, _ := strings.Cut(strings.TrimSpace(s), ":")
	sym := Symbol{Ticker: strings.ToUpper(ticker), Exchange: strings.ToUpper(exchange)}
	if !tickerRE.MatchString(sym.Ticker) {
		return Symbol{}, fmt.Errorf("invalid ticker %q", s)
	}
	return sym, nil
}

// MustParseSymbol is like ParseSymbol but panics on error.
func MustParseSymbol(s string) Symbol {
	sym, err := ParseSymbol(s)
	if err != nil {
		panic(err)
	}
	return sym
}

// String returns the symbol in its "TICKER[:EXCHANGE]" notation.
func (s Symbol) String() string {
	if s.Exchange == "" {
		return s.Ticker
	}
	return s.Ticker + ":" + s.Exchange
}

// Compare orders symbols by ticker then exchange.
func (s Symbol) Compare(o Symbol) int {
	if c := strings.Compare(s.Ticker, o.Ticker); c != 0 {
		return c
	}
	return strings.Compare(s.Exchange, o.Exchange)
}

// SymbolRef holds the descriptive data resolved for a Symbol.
//
// Fundamentals is the raw provider document, queried by columns using
// jsonpath expressions.
type SymbolRef struct {
	Symbol       Symbol         `json:"symbol"`
	Name         string         `json:"name,omitempty"`
	Type         string         `json:"type,omitempty"`
	Exchange     string         `json:"exchange,omitempty"`
	Currency     string         `json:"currency,omitempty"`
	Country      string         `json:"country,omitempty"`
	Sector       string         `json:"sector,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	ISIN         string         `json:"isin,omitempty"`
	ValidUntil   date.Date      `json:"valid_until"`
	Fundamentals map[string]any `json:"-"`
}

// Expired reports whether the cached data is stale on day.
func (r *SymbolRef) Expired(day date.Date) bool {
	return r.ValidUntil.IsZero() || day.After(r.ValidUntil)
}
