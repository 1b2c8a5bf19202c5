// Package eodhd is a client of the EOD Historical Data API (https://eodhd.com).
//
// The Client implements fins.DataSource: it resolves symbols from their
// fundamentals, fetches end of day prices and ETF holdings.
package eodhd

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
	"github.com/etnz/fins/httpcache"
)

// DefaultBaseURL is the address of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Client accesses the EODHD API.
type Client struct {
	apiKey string
	base   string
	// daily serves data changing every day (prices), monthly the rest.
	daily   *http.Client
	monthly *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the address of the API, mostly for tests.
func WithBaseURL(base string) Option { return func(c *Client) { c.base = strings.TrimSuffix(base, "/") } }

// WithCache caches responses in store: prices for the day, other data for the month.
func WithCache(store *httpcache.Store) Option {
	return func(c *Client) {
		c.daily = store.Client(date.Daily)
		c.monthly = store.Client(date.Monthly)
	}
}

// WithHTTPClient sets the http.Client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.daily, c.monthly = hc, hc }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "eodhd").Logger() }
}

// New returns a Client using apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		base:    DefaultBaseURL,
		daily:   http.DefaultClient,
		monthly: http.DefaultClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// url returns the address of the API endpoint path with the given query.
func (c *Client) url(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")
	return c.base + path + "?" + query.Encode()
}

// Code returns the EODHD code of sym, like "AAPL.US", "BRK-B.US" or "GSPC.INDX".
// Symbols without exchange are looked up on the US virtual exchange.
func Code(sym fins.Symbol) string {
	ticker := strings.ReplaceAll(sym.Ticker, ".", "-")
	switch {
	case strings.HasPrefix(ticker, "^"):
		return strings.TrimPrefix(ticker, "^") + ".INDX"
	case sym.Exchange == "":
		return ticker + ".US"
	default:
		return ticker + "." + sym.Exchange
	}
}

// usExchanges are the physical exchanges behind the US virtual exchange.
var usExchanges = map[string]bool{
	"US": true, "NASDAQ": true, "NYSE": true, "NYSE ARCA": true, "NYSE MKT": true, "BATS": true, "AMEX": true,
}

// symbol returns the fins.Symbol of a ticker listed on exchange.
func symbol(code, exchange string) (fins.Symbol, error) {
	if usExchanges[strings.ToUpper(exchange)] {
		exchange = ""
	}
	s := strings.ReplaceAll(code, "-", ".")
	if exchange != "" {
		s += ":" + exchange
	}
	return fins.ParseSymbol(s)
}
