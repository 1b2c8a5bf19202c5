package dsl

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
	"github.com/etnz/fins/storage"
)

// maxDepth bounds nested function calls.
const maxDepth = 32

// Interpreter runs commands against a registry, a storage and a data source.
//
// An Interpreter is safe for concurrent use if its storage and data source are.
type Interpreter struct {
	registry *Registry
	storage  storage.Storage
	source   fins.DataSource
	columns  fins.ColumnFactory
	log      zerolog.Logger
	today    func() date.Date
	workers  int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithDataSource sets the market data source used by columns and spreads.
func WithDataSource(src fins.DataSource) Option { return func(i *Interpreter) { i.source = src } }

// WithColumns sets the factory of column types.
func WithColumns(f fins.ColumnFactory) Option { return func(i *Interpreter) { i.columns = f } }

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(i *Interpreter) { i.log = log.With().Str("component", "dsl").Logger() }
}

// WithToday sets the function returning the current day.
func WithToday(today func() date.Date) Option { return func(i *Interpreter) { i.today = today } }

// WithWorkers sets the number of symbols whose column values are computed
// concurrently.
func WithWorkers(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.workers = n
		}
	}
}

// NewInterpreter returns an Interpreter dispatching nodes to the handlers of reg.
func NewInterpreter(reg *Registry, store storage.Storage, opts ...Option) *Interpreter {
	i := &Interpreter{
		registry: reg,
		storage:  store,
		source:   nopSource{},
		columns:  nopColumns{},
		log:      zerolog.Nop(),
		today:    date.Today,
		workers:  8,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Registry returns the registry of i.
func (i *Interpreter) Registry() *Registry { return i.registry }

// Storage returns the storage of i.
func (i *Interpreter) Storage() storage.Storage { return i.storage }

// Interpret parses and runs text. It never fails: errors, including handler
// panics, are returned as error Outputs.
func (i *Interpreter) Interpret(ctx context.Context, text string) (out fins.Output) {
	runID := uuid.NewString()
	log := i.log.With().Str("run_id", runID).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("command panicked")
			out = fins.Errorf("internal error: %v", r)
		}
		out = out.WithMetadata("run_id", runID).WithMetadata("command", text)
	}()

	chain, err := Parse(text)
	if err != nil {
		log.Debug().Err(err).Str("command", text).Msg("parse failed")
		return fins.Error(fmt.Errorf("parse error: %w", err))
	}
	env := &Env{session: &session{
		ctx:    ctx,
		interp: i,
		log:    log,
		values: make(map[string]fins.Value),
	}}
	out, err = env.Run(chain, fins.Void())
	if err != nil {
		out = fins.Error(err)
	}
	if b, ok := out.Basket(); ok {
		b, err = env.materialize(b)
		if err != nil {
			return fins.Error(err).After(out)
		}
		materialized := fins.NewOutput(b).After(out)
		for k, v := range out.Metadata() {
			materialized = materialized.WithMetadata(k, v)
		}
		out = materialized
	}
	if out.IsError() {
		log.Debug().Err(out.Err()).Str("command", text).Msg("command failed")
	}
	return out
}

// session is the state shared by every node of one Interpret call.
type session struct {
	ctx    context.Context
	interp *Interpreter
	log    zerolog.Logger

	mu     sync.Mutex
	values map[string]fins.Value // column key + symbol -> value
}

// Env is the environment a handler executes in.
type Env struct {
	*session
	// Input is the Output bound to the node: the chained input or the
	// evaluated left operand. Its log is always empty.
	Input fins.Output
	depth int
}

// Context returns the context of the Interpret call.
func (e *Env) Context() context.Context { return e.ctx }

// Storage returns the variable storage.
func (e *Env) Storage() storage.Storage { return e.interp.storage }

// Source returns the market data source.
func (e *Env) Source() fins.DataSource { return e.interp.source }

// Columns returns the factory of column types.
func (e *Env) Columns() fins.ColumnFactory { return e.interp.columns }

// Today returns the current day.
func (e *Env) Today() date.Date { return e.interp.today() }

// Eval evaluates a child node without input.
func (e *Env) Eval(n Node) (fins.Output, error) { return e.Run(n, fins.Void()) }

// Run dispatches n to its handler with input bound according to the handler
// signature.
func (e *Env) Run(n Node, input fins.Output) (fins.Output, error) {
	h, ok := e.interp.registry.Lookup(n.Kind())
	if !ok {
		return fins.Output{}, fmt.Errorf("%w: %s", fins.ErrUnknownCommand, n.Kind())
	}
	sig := h.Signature()

	if l, ok := n.(leftOperand); ok && l.LeftOperand() != nil {
		if !sig.ExplicitLeft {
			return fins.Output{}, syntaxErrorf(n.Span(), "%s does not accept a left operand", n.Kind())
		}
		if !input.IsVoid() {
			return fins.Output{}, syntaxErrorf(n.Span(), "ambiguous input: %q has both a left operand and a chained input", n.String())
		}
		left, err := e.Eval(l.LeftOperand())
		if err != nil {
			return fins.Output{}, err
		}
		if left.IsError() {
			return fins.Output{}, left.Err()
		}
		input = left
	}

	switch sig.Input {
	case InputNone:
		if !input.IsVoid() {
			if n.Kind() == KindBasket {
				return fins.Output{}, syntaxErrorf(n.Span(), "missing operator before %q", n.String())
			}
			return fins.Output{}, syntaxErrorf(n.Span(), "%s does not take an input", n.Kind())
		}
	case InputBasket:
		if input.IsVoid() {
			return fins.Output{}, syntaxErrorf(n.Span(), "missing input: %q needs a basket", n.String())
		}
		if input.Kind() != fins.KindBasket {
			return fins.Output{}, fmt.Errorf("%w: %q needs a basket, got a %s", fins.ErrTypeMismatch, n.String(), input.Kind())
		}
	}

	e.log.Debug().Str("kind", string(n.Kind())).Str("node", n.String()).Msg("execute")
	child := &Env{session: e.session, Input: input.WithoutLog(), depth: e.depth}
	return h.Execute(n, child)
}

// call runs a function body with the input of e.
func (e *Env) call(chain *Chain) (fins.Output, error) {
	if e.depth >= maxDepth {
		return fins.Output{}, fmt.Errorf("function calls nested deeper than %d", maxDepth)
	}
	child := &Env{session: e.session, Input: e.Input, depth: e.depth + 1}
	return child.Run(chain, e.Input)
}

// basket evaluates n, which must produce a basket.
func (e *Env) basket(n Node) (*fins.Basket, error) {
	out, err := e.Eval(n)
	if err != nil {
		return nil, err
	}
	if out.IsError() {
		return nil, out.Err()
	}
	b, ok := out.Basket()
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a basket", fins.ErrTypeMismatch, n, out.Kind())
	}
	return b, nil
}

// Values returns the values of the column spec for every symbol of b.
// Values are computed once per Interpret call.
func (e *Env) Values(b *fins.Basket, spec fins.ColumnSpec) (map[fins.Symbol]fins.Value, error) {
	col, err := e.Columns().Column(spec)
	if err != nil {
		return nil, err
	}
	if p, ok := e.Source().(prefetcher); ok {
		if err := p.Prefetch(e.ctx, b.Symbols()); err != nil {
			e.log.Warn().Err(err).Msg("prefetch failed")
		}
	}

	key := spec.Key()
	values := make(map[fins.Symbol]fins.Value, b.Len())
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(e.ctx)
	g.SetLimit(e.interp.workers)
	for _, sym := range b.Symbols() {
		if b.HasValue(spec.Name(), sym) {
			if cached, _ := b.Column(spec.Name()); cached.Key() == key {
				mu.Lock()
				values[sym] = b.Value(spec.Name(), sym)
				mu.Unlock()
				continue
			}
		}
		g.Go(func() error {
			v := e.value(ctx, col, key, sym)
			mu.Lock()
			values[sym] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

func (e *Env) value(ctx context.Context, col fins.Column, key string, sym fins.Symbol) fins.Value {
	k := key + "\x00" + sym.String()
	e.mu.Lock()
	v, ok := e.values[k]
	e.mu.Unlock()
	if ok {
		return v
	}
	v = col.Value(ctx, e.Source(), sym)
	e.mu.Lock()
	e.values[k] = v
	e.mu.Unlock()
	return v
}

// materialize computes the values of every column of b.
func (e *Env) materialize(b *fins.Basket) (*fins.Basket, error) {
	for _, spec := range b.Columns() {
		vals, err := e.Values(b, spec)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", spec.Name(), err)
		}
		b = b.WithValues(spec.Name(), vals)
	}
	return b, nil
}

// prefetcher is implemented by data sources able to resolve many symbols at once.
type prefetcher interface {
	Prefetch(ctx context.Context, symbols []fins.Symbol) error
}

// nopSource knows no symbol.
type nopSource struct{}

func (nopSource) Resolve(_ context.Context, sym fins.Symbol) (*fins.SymbolRef, error) {
	return nil, fmt.Errorf("%w: symbol %s (no data source)", fins.ErrNotFound, sym)
}

func (nopSource) Prices(_ context.Context, sym fins.Symbol, _ date.Range) (*date.History[float64], error) {
	return nil, fmt.Errorf("%w: prices of %s (no data source)", fins.ErrNotFound, sym)
}

func (nopSource) Holdings(_ context.Context, sym fins.Symbol) ([]fins.BasketItem, error) {
	return nil, fmt.Errorf("%w: holdings of %s (no data source)", fins.ErrNotFound, sym)
}

// nopColumns knows no column type.
type nopColumns struct{}

func (nopColumns) Column(spec fins.ColumnSpec) (fins.Column, error) {
	return nil, fmt.Errorf("%w: column type %q", fins.ErrNotFound, spec.Type)
}
