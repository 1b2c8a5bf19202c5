package symbols

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// Static is an in-memory fins.DataSource.
type Static struct {
	mu       sync.RWMutex
	refs     map[fins.Symbol]fins.SymbolRef
	prices   map[fins.Symbol]*date.History[float64]
	holdings map[fins.Symbol][]fins.BasketItem
}

// NewStatic returns an empty Static source.
func NewStatic() *Static {
	return &Static{
		refs:     make(map[fins.Symbol]fins.SymbolRef),
		prices:   make(map[fins.Symbol]*date.History[float64]),
		holdings: make(map[fins.Symbol][]fins.BasketItem),
	}
}

// AddRef makes ref known.
func (s *Static) AddRef(ref fins.SymbolRef) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[ref.Symbol] = ref
	return s
}

// AddPrices sets the price history of sym.
func (s *Static) AddPrices(sym fins.Symbol, h *date.History[float64]) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[sym] = h
	return s
}

// AddHoldings sets the holdings of sym.
func (s *Static) AddHoldings(sym fins.Symbol, items ...fins.BasketItem) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[sym] = items
	return s
}

// Resolve returns a copy of the ref of sym.
func (s *Static) Resolve(ctx context.Context, sym fins.Symbol) (*fins.SymbolRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[sym]
	if !ok {
		return nil, fmt.Errorf("%w: ticker %s", fins.ErrNotFound, sym)
	}
	return &ref, nil
}

// Prices returns the prices of sym within r.
func (s *Static) Prices(ctx context.Context, sym fins.Symbol, r date.Range) (*date.History[float64], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.prices[sym]
	if !ok {
		return nil, fmt.Errorf("%w: prices of %s", fins.ErrNotFound, sym)
	}
	return h.Between(r), nil
}

// Holdings returns the holdings of sym.
func (s *Static) Holdings(ctx context.Context, sym fins.Symbol) ([]fins.BasketItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.holdings[sym]
	if !ok {
		return nil, fmt.Errorf("%w: holdings of %s", fins.ErrNotFound, sym)
	}
	return slices.Clone(items), nil
}
