package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// This file contains functions to access the EODHD API.

// Fundamentals is the fundamentals document of a ticker.
type Fundamentals struct {
	General struct {
		Code         string `json:"Code"`
		Type         string `json:"Type"`
		Name         string `json:"Name"`
		Exchange     string `json:"Exchange"`
		CurrencyCode string `json:"CurrencyCode"`
		CountryName  string `json:"CountryName"`
		ISIN         string `json:"ISIN"`
		Sector       string `json:"Sector"`
		Industry     string `json:"Industry"`
	} `json:"General"`
	ETFData struct {
		Holdings map[string]struct {
			Code     string          `json:"Code"`
			Exchange string          `json:"Exchange"`
			Assets   decimal.Decimal `json:"Assets_%"`
		} `json:"Holdings"`
	} `json:"ETF_Data"`

	// Raw is the whole document, for jsonpath queries.
	Raw map[string]any `json:"-"`
}

// Fundamentals returns the fundamentals document of sym.
func (c *Client) Fundamentals(ctx context.Context, sym fins.Symbol) (*Fundamentals, error) {
	// https://eodhd.com/api/fundamentals/AAPL.US?api_token=demo&fmt=json
	var raw json.RawMessage
	if err := jwget(ctx, c.monthly, c.url("/fundamentals/"+url.PathEscape(Code(sym)), nil), &raw); err != nil {
		return nil, fmt.Errorf("cannot fetch fundamentals of %s: %w", sym, err)
	}
	f := new(Fundamentals)
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("invalid fundamentals of %s: %w", sym, err)
	}
	if err := json.Unmarshal(raw, &f.Raw); err != nil {
		return nil, fmt.Errorf("invalid fundamentals of %s: %w", sym, err)
	}
	if f.General.Code == "" {
		// unknown tickers get an empty document
		return nil, fmt.Errorf("%w: ticker %s", fins.ErrNotFound, sym)
	}
	return f, nil
}

// Resolve returns the descriptive data of sym.
func (c *Client) Resolve(ctx context.Context, sym fins.Symbol) (*fins.SymbolRef, error) {
	f, err := c.Fundamentals(ctx, sym)
	if err != nil {
		return nil, err
	}
	g := f.General
	return &fins.SymbolRef{
		Symbol:       sym,
		Name:         g.Name,
		Type:         g.Type,
		Exchange:     g.Exchange,
		Currency:     g.CurrencyCode,
		Country:      g.CountryName,
		Sector:       g.Sector,
		Industry:     g.Industry,
		ISIN:         g.ISIN,
		Fundamentals: f.Raw,
	}, nil
}

// Holdings returns the holdings of an ETF, weighted by their share of the
// fund's assets (1 is 100%).
func (c *Client) Holdings(ctx context.Context, sym fins.Symbol) ([]fins.BasketItem, error) {
	f, err := c.Fundamentals(ctx, sym)
	if err != nil {
		return nil, err
	}
	if len(f.ETFData.Holdings) == 0 {
		return nil, fmt.Errorf("%w: holdings of %s", fins.ErrNotFound, sym)
	}
	hundred := decimal.NewFromInt(100)
	items := make([]fins.BasketItem, 0, len(f.ETFData.Holdings))
	for key, h := range f.ETFData.Holdings {
		code := h.Code
		if code == "" {
			code, _, _ = strings.Cut(key, ".")
		}
		s, err := symbol(code, h.Exchange)
		if err != nil {
			c.log.Debug().Err(err).Str("holding", key).Msg("holding skipped")
			continue
		}
		items = append(items, fins.BasketItem{Symbol: s, Weight: h.Assets.Div(hundred).InexactFloat64()})
	}
	return items, nil
}

// Prices returns the daily adjusted closing prices of sym over r.
func (c *Client) Prices(ctx context.Context, sym fins.Symbol, r date.Range) (*date.History[float64], error) {
	// https://eodhd.com/api/eod/NVD.F?api_token=demo&fmt=json&from=2024-01-01&to=2024-02-13
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	query := url.Values{"from": {r.From.String()}, "to": {r.To.String()}}
	type Info struct {
		Date          date.Date       `json:"date"`
		Close         decimal.Decimal `json:"close"`
		AdjustedClose decimal.Decimal `json:"adjusted_close"`
	}

	// that's the payload
	content := make([]Info, 0)
	if err := jwget(ctx, c.daily, c.url("/eod/"+url.PathEscape(Code(sym)), query), &content); err != nil {
		return nil, fmt.Errorf("cannot fetch prices of %s: %w", sym, err)
	}

	h := new(date.History[float64])
	for _, info := range content {
		v := info.AdjustedClose
		if v.IsZero() {
			v = info.Close
		}
		h.Append(info.Date, v.InexactFloat64())
	}
	return h, nil
}

// Exchanges returns a map of MIC to EODHD's internal exchange code.
//
// This is required since EODHD use its own id for exchange places.
func (c *Client) Exchanges(ctx context.Context) (map[string]string, error) {
	// https://eodhd.com/api/exchanges-list/?api_token=demo&fmt=json
	// [
	// {
	// 	"Name": "Frankfurt Exchange",
	// 	"Code": "F",
	// 	"OperatingMIC": "XFRA",
	// 	"Country": "Germany",
	// 	"Currency": "EUR",
	// 	"CountryISO2": "DE",
	// 	"CountryISO3": "DEU"
	//   },
	type Info struct {
		Code         string
		OperatingMIC string // could be a comma separated list of MICs
	}

	content := make([]Info, 0)
	if err := jwget(ctx, c.monthly, c.url("/exchanges-list/", nil), &content); err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, info := range content {
		for _, mic := range strings.Split(info.OperatingMIC, ",") {
			result[strings.TrimSpace(mic)] = info.Code
		}
	}
	return result, nil
}

// TickerInfo holds information about a specific ticker on an exchange from the EODHD API.
type TickerInfo struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Country  string `json:"Country"`
	Exchange string `json:"Exchange"`
	Currency string `json:"Currency"`
	Type     string `json:"Type"`
	Isin     string `json:"Isin"`
}

// Tickers retrieves the list of all tickers for a given exchange code.
func (c *Client) Tickers(ctx context.Context, exchangeCode string, delisted bool) ([]TickerInfo, error) {
	// https://eodhd.com/api/exchange-symbol-list/{EXCHANGE_CODE}
	query := url.Values{}
	if delisted {
		query.Set("delisted", "1")
	}
	var content []TickerInfo
	if err := jwget(ctx, c.monthly, c.url("/exchange-symbol-list/"+url.PathEscape(exchangeCode), query), &content); err != nil {
		return nil, fmt.Errorf("failed to fetch tickers for exchange %s: %w", exchangeCode, err)
	}
	return content, nil
}
