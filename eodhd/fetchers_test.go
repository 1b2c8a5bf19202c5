package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

const aaplFundamentals = `{
	"General": {"Code": "AAPL", "Type": "Common Stock", "Name": "Apple Inc", "Exchange": "NASDAQ",
		"CurrencyCode": "USD", "CountryName": "USA", "ISIN": "US0378331005",
		"Sector": "Technology", "Industry": "Consumer Electronics"},
	"Highlights": {"MarketCapitalization": 3400000000000, "PERatio": 33.1}
}`

const spyFundamentals = `{
	"General": {"Code": "SPY", "Type": "ETF", "Name": "SPDR S&P 500", "Exchange": "NYSE ARCA", "CurrencyCode": "USD"},
	"ETF_Data": {"Holdings": {
		"AAPL.US": {"Code": "AAPL", "Exchange": "NASDAQ", "Assets_%": 7.5},
		"BRK-B.US": {"Code": "BRK-B", "Exchange": "NYSE", "Assets_%": "1.5"},
		"SAP.XETRA": {"Code": "SAP", "Exchange": "XETRA", "Assets_%": 0.5}
	}}
}`

const eod = `[
	{"date": "2025-06-02", "open": 1, "close": 100.5, "adjusted_close": 100.0},
	{"date": "2025-06-03", "open": 1, "close": 101.5, "adjusted_close": 0}
]`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fundamentals/AAPL.US", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(aaplFundamentals))
	})
	mux.HandleFunc("/fundamentals/SPY.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(spyFundamentals))
	})
	mux.HandleFunc("/eod/AAPL.US", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "2025-06-01" {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		w.Write([]byte(eod))
	})
	mux.HandleFunc("/search/apple", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Code": "AAPL", "Exchange": "US", "Name": "Apple Inc", "ISIN": "US0378331005"}]`))
	})
	mux.HandleFunc("/exchanges-list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Code": "US", "OperatingMIC": "XNAS, XNYS"}, {"Code": "F", "OperatingMIC": "XFRA"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New("key", WithBaseURL(srv.URL))
}

func TestCode(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL.US"},
		{"BRK.B", "BRK-B.US"},
		{"SAP:XETRA", "SAP.XETRA"},
		{"^GSPC", "GSPC.INDX"},
	}
	for _, tc := range testCases {
		if got := Code(fins.MustParseSymbol(tc.in)); got != tc.want {
			t.Errorf("Code(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	c := newTestClient(t)
	ref, err := c.Resolve(context.Background(), fins.MustParseSymbol("AAPL"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Name != "Apple Inc" || ref.Sector != "Technology" || ref.Currency != "USD" || ref.ISIN != "US0378331005" {
		t.Errorf("Resolve() = %+v", ref)
	}
	hl, ok := ref.Fundamentals["Highlights"].(map[string]any)
	if !ok || hl["PERatio"] != 33.1 {
		t.Errorf("Fundamentals = %v, want the raw document", ref.Fundamentals)
	}

	_, err = c.Resolve(context.Background(), fins.MustParseSymbol("NOPE"))
	if !errors.Is(err, fins.ErrNotFound) {
		t.Errorf("Resolve(NOPE) error = %v, want ErrNotFound", err)
	}
}

func TestHoldings(t *testing.T) {
	c := newTestClient(t)
	items, err := c.Holdings(context.Background(), fins.MustParseSymbol("SPY"))
	if err != nil {
		t.Fatalf("Holdings() error = %v", err)
	}
	b := fins.NewBasket(items...)
	want := map[string]float64{"AAPL": 0.075, "BRK.B": 0.015, "SAP:XETRA": 0.005}
	if b.Len() != len(want) {
		t.Fatalf("Holdings() = %v, want %v", items, want)
	}
	for s, w := range want {
		if got, _ := b.Weight(fins.MustParseSymbol(s)); got != w {
			t.Errorf("weight of %s = %v, want %v", s, got, w)
		}
	}

	if _, err := c.Holdings(context.Background(), fins.MustParseSymbol("AAPL")); !errors.Is(err, fins.ErrNotFound) {
		t.Errorf("Holdings(AAPL) error = %v, want ErrNotFound", err)
	}
}

func TestPrices(t *testing.T) {
	c := newTestClient(t)
	r := date.Range{From: date.New(2025, time.June, 1), To: date.New(2025, time.June, 30)}
	h, err := c.Prices(context.Background(), fins.MustParseSymbol("AAPL"), r)
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("Prices() has %d values, want 2", h.Len())
	}
	if d, v := h.First(); d.Compare(date.New(2025, time.June, 2)) != 0 || v != 100 {
		t.Errorf("adjusted close = %v, want 100", v)
	}
	if d, v := h.Latest(); d.Compare(date.New(2025, time.June, 3)) != 0 || v != 101.5 {
		t.Errorf("close without adjusted close = %v, want 101.5", v)
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t)
	results, err := c.Search(context.Background(), "apple")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() = %v, want one result per MIC of US", results)
	}
	mics := map[string]bool{results[0].MIC: true, results[1].MIC: true}
	if !mics["XNAS"] || !mics["XNYS"] {
		t.Errorf("MICs = %v, want XNAS and XNYS", mics)
	}
	if sym, err := results[0].Symbol(); err != nil || sym != fins.MustParseSymbol("AAPL") {
		t.Errorf("Symbol() = %v, %v", sym, err)
	}
}
