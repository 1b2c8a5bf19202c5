// Package symbols resolves tickers through layered caches.
//
// A Resolver looks a symbol up in memory, then in a sqlite Cache, and only then
// asks its provider. Resolved symbols are valid until the end of the month.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

// DefaultMaxConcurrentFetches bounds the parallel calls to the provider.
const DefaultMaxConcurrentFetches = 8

// Resolver implements fins.DataSource on top of a provider.
type Resolver struct {
	provider fins.DataSource
	cache    *Cache
	log      zerolog.Logger
	today    func() date.Date
	limit    int

	mu    sync.RWMutex
	refs  map[fins.Symbol]*fins.SymbolRef
	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache persists resolved symbols in c.
func WithCache(c *Cache) Option { return func(r *Resolver) { r.cache = c } }

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log.With().Str("component", "symbols").Logger() }
}

// WithToday sets the clock used for validity checks.
func WithToday(today func() date.Date) Option { return func(r *Resolver) { r.today = today } }

// WithMaxConcurrentFetches bounds the parallel calls to the provider.
func WithMaxConcurrentFetches(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewResolver returns a Resolver asking provider for unknown symbols.
func NewResolver(provider fins.DataSource, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		log:      zerolog.Nop(),
		today:    date.Today,
		limit:    DefaultMaxConcurrentFetches,
		refs:     make(map[fins.Symbol]*fins.SymbolRef),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the descriptive data of sym.
func (r *Resolver) Resolve(ctx context.Context, sym fins.Symbol) (*fins.SymbolRef, error) {
	today := r.today()
	r.mu.RLock()
	ref, ok := r.refs[sym]
	r.mu.RUnlock()
	if ok && !ref.Expired(today) {
		return ref, nil
	}

	v, err, _ := r.group.Do("ref:"+sym.String(), func() (any, error) {
		r.mu.RLock()
		ref, ok := r.refs[sym]
		r.mu.RUnlock()
		if ok && !ref.Expired(today) {
			return ref, nil
		}
		if r.cache != nil {
			ref, ok, err := r.cache.Get(ctx, sym, today)
			if err != nil {
				r.log.Warn().Err(err).Stringer("symbol", sym).Msg("symbol cache read failed")
			}
			if ok {
				r.remember(ref)
				return ref, nil
			}
		}
		r.log.Debug().Stringer("symbol", sym).Msg("resolving")
		ref, err := r.provider.Resolve(ctx, sym)
		if err != nil {
			return nil, err
		}
		ref.Symbol = sym
		ref.ValidUntil = today.EndOfMonth()
		if r.cache != nil {
			if err := r.cache.Put(ctx, ref); err != nil {
				r.log.Warn().Err(err).Stringer("symbol", sym).Msg("symbol cache write failed")
			}
		}
		r.remember(ref)
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fins.SymbolRef), nil
}

func (r *Resolver) remember(ref *fins.SymbolRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[ref.Symbol] = ref
}

// Prices returns the price history of sym over rg.
func (r *Resolver) Prices(ctx context.Context, sym fins.Symbol, rg date.Range) (*date.History[float64], error) {
	v, err, _ := r.group.Do(fmt.Sprintf("prices:%s:%s:%s", sym, rg.From, rg.To), func() (any, error) {
		return r.provider.Prices(ctx, sym, rg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*date.History[float64]), nil
}

// Holdings returns the holdings of sym.
func (r *Resolver) Holdings(ctx context.Context, sym fins.Symbol) ([]fins.BasketItem, error) {
	v, err, _ := r.group.Do("holdings:"+sym.String(), func() (any, error) {
		return r.provider.Holdings(ctx, sym)
	})
	if err != nil {
		return nil, err
	}
	return v.([]fins.BasketItem), nil
}

// ResolveAll resolves symbols in parallel. Unknown symbols are left out of the
// result; any other failure aborts.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []fins.Symbol) (map[fins.Symbol]*fins.SymbolRef, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	var mu sync.Mutex
	refs := make(map[fins.Symbol]*fins.SymbolRef, len(symbols))
	for _, sym := range symbols {
		g.Go(func() error {
			ref, err := r.Resolve(ctx, sym)
			if errors.Is(err, fins.ErrNotFound) {
				r.log.Debug().Stringer("symbol", sym).Msg("unknown symbol")
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			refs[sym] = ref
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// Prefetch resolves symbols ahead of column computations.
func (r *Resolver) Prefetch(ctx context.Context, symbols []fins.Symbol) error {
	_, err := r.ResolveAll(ctx, symbols)
	return err
}

// Purge forgets the in-memory symbols expired on day and purges the cache.
func (r *Resolver) Purge(ctx context.Context, day date.Date) (int64, error) {
	r.mu.Lock()
	for sym, ref := range r.refs {
		if ref.Expired(day) {
			delete(r.refs, sym)
		}
	}
	r.mu.Unlock()
	if r.cache == nil {
		return 0, nil
	}
	return r.cache.Purge(ctx, day)
}
