package eodhd

import (
	"context"
	"net/url"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string    `json:"Code"`
	Exchange          string    `json:"Exchange"`
	Name              string    `json:"Name"`
	Type              string    `json:"Type"`
	Country           string    `json:"Country"`
	Currency          string    `json:"Currency"`
	ISIN              string    `json:"ISIN"`
	PreviousClose     float64   `json:"previousClose"`
	PreviousCloseDate date.Date `json:"previousCloseDate"`
	MIC               string    `json:"-"` // Populated by Search, not from API directly.
}

// Symbol returns the fins.Symbol of the result.
func (r SearchResult) Symbol() (fins.Symbol, error) { return symbol(r.Code, r.Exchange) }

// Search searches for securities by name, ticker or ISIN.
func (c *Client) Search(ctx context.Context, searchTerm string) ([]SearchResult, error) {
	var results []SearchResult
	if err := jwget(ctx, c.daily, c.url("/search/"+url.PathEscape(searchTerm), nil), &results); err != nil {
		return nil, err
	}
	// Search results reference an exchange code that could match multiple MIC (only for the US apparently).
	mic2Exchange, err := c.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	// Reverse the map.
	exchange2mic := make(map[string][]string)
	for k, v := range mic2Exchange {
		exchange2mic[v] = append(exchange2mic[v], k)
	}

	// Now we fully rebuild the search result list with potentially different MIC
	newResults := make([]SearchResult, 0, len(results))
	for _, result := range results {
		mics := exchange2mic[result.Exchange]
		if len(mics) == 0 {
			newResults = append(newResults, result)
			continue
		}
		for _, mic := range mics {
			r := result
			r.MIC = mic
			newResults = append(newResults, r)
		}
	}
	return newResults, nil
}
