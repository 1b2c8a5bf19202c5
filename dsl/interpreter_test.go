package dsl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
	"github.com/etnz/fins/storage"
)

// fakeColumns serves columns from a table: type -> ticker -> value.
type fakeColumns map[string]map[string]fins.Value

func (f fakeColumns) Column(spec fins.ColumnSpec) (fins.Column, error) {
	vals, ok := f[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: column type %q", fins.ErrNotFound, spec.Type)
	}
	return fakeColumn{spec: spec, vals: vals}, nil
}

type fakeColumn struct {
	spec fins.ColumnSpec
	vals map[string]fins.Value
}

func (c fakeColumn) Spec() fins.ColumnSpec { return c.spec }

func (c fakeColumn) Value(_ context.Context, _ fins.DataSource, sym fins.Symbol) fins.Value {
	return c.vals[sym.Ticker]
}

// fakeSource knows a few symbols and the holdings of SPY.
type fakeSource struct{}

func (fakeSource) Resolve(_ context.Context, sym fins.Symbol) (*fins.SymbolRef, error) {
	if sym.Ticker != "AAPL" {
		return nil, fmt.Errorf("%w: %s", fins.ErrNotFound, sym)
	}
	return &fins.SymbolRef{Symbol: sym, Name: "Apple Inc", Sector: "Technology", Currency: "USD"}, nil
}

func (fakeSource) Prices(_ context.Context, sym fins.Symbol, _ date.Range) (*date.History[float64], error) {
	return nil, fmt.Errorf("%w: %s", fins.ErrNotFound, sym)
}

func (fakeSource) Holdings(_ context.Context, sym fins.Symbol) ([]fins.BasketItem, error) {
	if sym.Ticker != "SPY" {
		return nil, fmt.Errorf("%w: %s", fins.ErrNotFound, sym)
	}
	return []fins.BasketItem{
		{Symbol: fins.MustParseSymbol("AAPL"), Weight: 0.5},
		{Symbol: fins.MustParseSymbol("MSFT"), Weight: 0.3},
		{Symbol: fins.MustParseSymbol("NVDA"), Weight: 0.2},
	}, nil
}

var testColumns = fakeColumns{
	"mcap": {
		"AAPL":  fins.Number(3.4e12),
		"MSFT":  fins.Number(3.1e12),
		"GOOGL": fins.Number(2.1e12),
		"SMALL": fins.Number(5e9),
	},
	"pe": {
		"AAPL":  fins.Number(33),
		"MSFT":  fins.Number(36),
		"GOOGL": fins.Number(22),
		"SMALL": fins.Number(22),
	},
	"sector": {
		"AAPL":  fins.Text("Technology"),
		"MSFT":  fins.Text("Technology"),
		"GOOGL": fins.Text("Communication Services"),
	},
}

func newTestInterpreter(t *testing.T, dir string) *Interpreter {
	t.Helper()
	reg := Builtins()
	if err := reg.Check(); err != nil {
		t.Fatal(err)
	}
	store := storage.New(dir, fins.Codec{}, zerolog.Nop())
	return NewInterpreter(reg, store,
		WithColumns(testColumns),
		WithDataSource(fakeSource{}),
		WithToday(func() date.Date { return date.New(2025, time.June, 30) }),
	)
}

// run interprets every command but the last and fails on errors, then
// returns the output of the last one.
func run(t *testing.T, in *Interpreter, commands ...string) fins.Output {
	t.Helper()
	for _, c := range commands[:len(commands)-1] {
		if out := in.Interpret(context.Background(), c); out.IsError() {
			t.Fatalf("Interpret(%q) = %v", c, out)
		}
	}
	return in.Interpret(context.Background(), commands[len(commands)-1])
}

// weights returns the ticker -> weight content of a basket output.
func weights(t *testing.T, out fins.Output) map[string]float64 {
	t.Helper()
	b, ok := out.Basket()
	if !ok {
		t.Fatalf("output = %v, want a basket", out)
	}
	m := make(map[string]float64)
	for _, it := range b.Items() {
		m[it.Symbol.String()] = it.Weight
	}
	return m
}

// tickers returns the ordered tickers of a basket output.
func tickers(t *testing.T, out fins.Output) []string {
	t.Helper()
	b, ok := out.Basket()
	if !ok {
		t.Fatalf("output = %v, want a basket", out)
	}
	var s []string
	for _, sym := range b.Symbols() {
		s = append(s, sym.String())
	}
	return s
}

func TestInterpretScenarios(t *testing.T) {
	testCases := []struct {
		command string
		want    map[string]float64
	}{
		{"AAPL MSFT -> + GOOGL 7x NFLX", map[string]float64{"AAPL": 1, "MSFT": 1, "GOOGL": 1, "NFLX": 7}},
		{"AAPL MSFT GOOGL -> + GOOGL", map[string]float64{"AAPL": 1, "MSFT": 1, "GOOGL": 2}},
		{"AAPL MSFT GOOGL -> - MSFT", map[string]float64{"AAPL": 1, "GOOGL": 1}},
		{"AAPL 2x MSFT -> & 3x MSFT GOOGL", map[string]float64{"MSFT": 2}},
		{"AAPL MSFT SMALL -> mcap > 10B", map[string]float64{"AAPL": 1, "MSFT": 1}},
		{"AAPL AAPL 1.5x AAPL", map[string]float64{"AAPL": 3.5}},
	}
	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			in := newTestInterpreter(t, t.TempDir())
			out := run(t, in, tc.command)
			if diff := cmp.Diff(tc.want, weights(t, out)); diff != "" {
				t.Errorf("Interpret(%q) mismatch (-want +got):\n%s", tc.command, diff)
			}
		})
	}
}

func TestInterpretVariables(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "AAPL MSFT -> $a", "$a + NFLX")
	if diff := cmp.Diff(map[string]float64{"AAPL": 1, "MSFT": 1, "NFLX": 1}, weights(t, out)); diff != "" {
		t.Errorf("$a + NFLX mismatch (-want +got):\n%s", diff)
	}

	// assignment forwards its input
	out = run(t, in, "GOOGL -> $b -> + AAPL")
	if diff := cmp.Diff(map[string]float64{"GOOGL": 1, "AAPL": 1}, weights(t, out)); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}

	out = run(t, in, "$b")
	if got := out.Metadata()["type"]; got != "basket" {
		t.Errorf("metadata type = %v, want basket", got)
	}
	if diff := cmp.Diff(map[string]float64{"GOOGL": 1}, weights(t, out)); diff != "" {
		t.Errorf("$b mismatch (-want +got):\n%s", diff)
	}

	out = run(t, in, "2x $a $b")
	if diff := cmp.Diff(map[string]float64{"AAPL": 2, "MSFT": 2, "GOOGL": 1}, weights(t, out)); diff != "" {
		t.Errorf("weighted variable mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretDiskVariables(t *testing.T) {
	dir := t.TempDir()
	run(t, newTestInterpreter(t, dir), "AAPL 2x MSFT -> /lists/big -> $a", "$a")

	fresh := newTestInterpreter(t, dir)
	out := run(t, fresh, "/lists/big")
	if diff := cmp.Diff(map[string]float64{"AAPL": 1, "MSFT": 2}, weights(t, out)); diff != "" {
		t.Errorf("/lists/big mismatch (-want +got):\n%s", diff)
	}
	if out := run(t, fresh, "$a"); !errors.Is(out.Err(), fins.ErrNotFound) {
		t.Errorf("memory variable survived: %v", out)
	}
}

func TestInterpretErrors(t *testing.T) {
	testCases := []struct {
		command string
		want    error
		msg     string
	}{
		{"AAPL -> $a + NFLX", ErrSyntax, "ambiguous input"},
		{"+ NFLX", ErrSyntax, "missing input"},
		{"sort pe", ErrSyntax, "missing input"},
		{"AAPL -> MSFT", ErrSyntax, "missing operator"},
		{"AAPL -> DEFINE !f = \"sort pe\"", ErrSyntax, "does not take an input"},
		{"AAPL -> info -> sort pe", fins.ErrTypeMismatch, ""},
		{"$missing", fins.ErrNotFound, "$missing"},
		{"AAPL -> + $missing", fins.ErrNotFound, "$missing"},
		{"AAPL -> sort foo", fins.ErrNotFound, "unknown attribute"},
		{"AAPL -> foo", fins.ErrNotFound, "foo"},
		{"!nothing", fins.ErrNotFound, "!nothing"},
		{"lock $nothing", fins.ErrNotFound, ""},
		{": ZZZZ", fins.ErrNotFound, ""},
		{"..QQQ", fins.ErrNotFound, ""},
		{"AAPL ))", ErrSyntax, "parse error"},
		{"info", ErrSyntax, "missing input"},
	}
	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			in := newTestInterpreter(t, t.TempDir())
			out := run(t, in, tc.command)
			if !out.IsError() {
				t.Fatalf("Interpret(%q) = %v, want an error", tc.command, out)
			}
			if !errors.Is(out.Err(), tc.want) {
				t.Errorf("Interpret(%q) error = %v, want %v", tc.command, out.Err(), tc.want)
			}
			if !strings.Contains(out.String(), tc.msg) {
				t.Errorf("Interpret(%q) = %q, want it to contain %q", tc.command, out.String(), tc.msg)
			}
			if !strings.HasPrefix(out.String(), "Error: ") {
				t.Errorf("String() = %q, want an Error: prefix", out.String())
			}
		})
	}
}

func TestInterpretShortCircuit(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "AAPL -> sort foo -> $never")
	if !out.IsError() {
		t.Fatalf("got %v, want an error", out)
	}
	if out := run(t, in, "$never"); !errors.Is(out.Err(), fins.ErrNotFound) {
		t.Errorf("stage after an error was executed: %v", out)
	}
	want := []string{"basket: AAPL", "sort_command: sort foo asc"}
	if diff := cmp.Diff(want, out.Log()); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretLock(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "AAPL -> /x", "lock /x", "MSFT -> /x")
	if !errors.Is(out.Err(), fins.ErrLocked) {
		t.Fatalf("set on a locked path = %v, want ErrLocked", out)
	}
	if !strings.Contains(out.String(), "variable is locked") {
		t.Errorf("String() = %q", out.String())
	}
	if diff := cmp.Diff(map[string]float64{"AAPL": 1}, weights(t, run(t, in, "/x"))); diff != "" {
		t.Errorf("locked value changed (-want +got):\n%s", diff)
	}
	out = run(t, in, "unlock /x", "MSFT -> /x", "/x")
	if diff := cmp.Diff(map[string]float64{"MSFT": 1}, weights(t, out)); diff != "" {
		t.Errorf("unlocked value mismatch (-want +got):\n%s", diff)
	}
	out = run(t, in, "/x -> info")
	if s, _ := out.Text(); !strings.Contains(s, "items: 1") {
		t.Errorf("info = %q", s)
	}
	out = run(t, in, "info /x")
	if s, _ := out.Text(); !strings.Contains(s, "locked: false") || !strings.Contains(s, "type: basket") {
		t.Errorf("info /x = %q", s)
	}
}

func TestInterpretSort(t *testing.T) {
	testCases := []struct {
		command string
		want    []string
	}{
		// NFLX has no mcap: it sorts as 0
		{"AAPL MSFT NFLX GOOGL -> sort mcap desc", []string{"AAPL", "MSFT", "GOOGL", "NFLX"}},
		{"AAPL MSFT NFLX GOOGL -> sort mcap", []string{"NFLX", "GOOGL", "MSFT", "AAPL"}},
		// GOOGL and SMALL tie on pe: ticker order breaks the tie either way
		{"SMALL GOOGL AAPL -> sort pe", []string{"GOOGL", "SMALL", "AAPL"}},
		{"SMALL GOOGL AAPL -> sort pe desc", []string{"AAPL", "GOOGL", "SMALL"}},
		{"AAPL 3x MSFT 2x GOOGL -> sort weight desc", []string{"MSFT", "GOOGL", "AAPL"}},
		{"MSFT AAPL -> sort ticker", []string{"AAPL", "MSFT"}},
		{"GOOGL AAPL MSFT -> |s sector -> sort s", []string{"GOOGL", "AAPL", "MSFT"}},
	}
	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			out := run(t, newTestInterpreter(t, t.TempDir()), tc.command)
			if diff := cmp.Diff(tc.want, tickers(t, out)); diff != "" {
				t.Errorf("Interpret(%q) mismatch (-want +got):\n%s", tc.command, diff)
			}
		})
	}
}

func TestInterpretFilter(t *testing.T) {
	testCases := []struct {
		command string
		want    []string
	}{
		// NFLX has no pe: it is dropped
		{"AAPL MSFT NFLX GOOGL -> pe < 35", []string{"AAPL", "GOOGL"}},
		{"AAPL MSFT GOOGL -> pe >= 33", []string{"AAPL", "MSFT"}},
		{"AAPL MSFT GOOGL -> pe != 33", []string{"MSFT", "GOOGL"}},
		{"AAPL MSFT GOOGL -> sector = technology", []string{"AAPL", "MSFT"}},
		{"AAPL MSFT GOOGL -> sector = 'Communication Services'", []string{"GOOGL"}},
		{"AAPL MSFT GOOGL -> sector > 10", nil},
		{"AAPL 2x MSFT -> weight > 1", []string{"MSFT"}},
		{"$tech pe < 35 sort pe", []string{"GOOGL", "AAPL"}},
	}
	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			in := newTestInterpreter(t, t.TempDir())
			out := run(t, in, "AAPL MSFT GOOGL NFLX -> $tech", tc.command)
			if diff := cmp.Diff(tc.want, tickers(t, out)); diff != "" {
				t.Errorf("Interpret(%q) mismatch (-want +got):\n%s", tc.command, diff)
			}
		})
	}
}

func TestInterpretFilterReference(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	if err := in.Storage().Set("$max", 30.0, nil); err != nil {
		t.Fatal(err)
	}
	out := run(t, in, "AAPL GOOGL -> pe < $max")
	if diff := cmp.Diff([]string{"GOOGL"}, tickers(t, out)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretColumns(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "AAPL NFLX -> |cap mcap -> pe")
	b, ok := out.Basket()
	if !ok {
		t.Fatalf("output = %v, want a basket", out)
	}
	var names []string
	for _, c := range b.Columns() {
		names = append(names, c.Name())
	}
	if diff := cmp.Diff([]string{"cap", "pe"}, names); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	aapl, nflx := fins.MustParseSymbol("AAPL"), fins.MustParseSymbol("NFLX")
	if got := b.Value("cap", aapl); got != fins.Number(3.4e12) {
		t.Errorf("cap of AAPL = %v, want 3.4e12", got)
	}
	if got := b.Value("pe", nflx); !got.IsNone() {
		t.Errorf("pe of NFLX = %v, want none", got)
	}

	// a filter on a known column type attaches it
	out = run(t, in, "AAPL GOOGL -> pe < 30")
	b, _ = out.Basket()
	if _, ok := b.Column("pe"); !ok {
		t.Errorf("pe column not attached: %v", b.Columns())
	}
}

func TestInterpretFunctions(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in,
		`DEFINE !big = "mcap > 1T -> sort mcap desc"`,
		"SMALL GOOGL MSFT AAPL -> !big")
	if diff := cmp.Diff([]string{"AAPL", "MSFT", "GOOGL"}, tickers(t, out)); diff != "" {
		t.Errorf("!big mismatch (-want +got):\n%s", diff)
	}
	if s, _ := run(t, in, "$!big").Text(); s != "mcap > 1T -> sort mcap desc" {
		t.Errorf("$!big = %q", s)
	}

	if out := run(t, in, `DEFINE !bad = "sort"`); !errors.Is(out.Err(), ErrSyntax) {
		t.Errorf("invalid body = %v, want a syntax error", out)
	}

	out = run(t, in, `DEFINE !loop = "!loop"`, "!loop")
	if !out.IsError() || !strings.Contains(out.String(), "nested deeper") {
		t.Errorf("recursive function = %v, want a depth error", out)
	}
}

func TestInterpretSpread(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "..SPY")
	if diff := cmp.Diff(map[string]float64{"AAPL": 0.5, "MSFT": 0.3, "NVDA": 0.2}, weights(t, out)); diff != "" {
		t.Errorf("..SPY mismatch (-want +got):\n%s", diff)
	}
	out = run(t, in, "10x SPY AAPL -> ..SPY")
	if diff := cmp.Diff(map[string]float64{"AAPL": 6, "MSFT": 3, "NVDA": 2}, weights(t, out)); diff != "" {
		t.Errorf("10x SPY AAPL -> ..SPY mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretInfo(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, ": AAPL")
	s, ok := out.Text()
	if !ok {
		t.Fatalf("output = %v, want a text", out)
	}
	for _, want := range []string{"AAPL: Apple Inc", "sector: Technology", "currency: USD"} {
		if !strings.Contains(s, want) {
			t.Errorf("info = %q, want it to contain %q", s, want)
		}
	}
}

func TestInterpretOutput(t *testing.T) {
	in := newTestInterpreter(t, t.TempDir())
	out := run(t, in, "AAPL MSFT -> + GOOGL")
	want := []string{"basket: AAPL MSFT", "union: + GOOGL", "3 items"}
	if diff := cmp.Diff(want, out.Log()); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
	meta := out.Metadata()
	if meta["command"] != "AAPL MSFT -> + GOOGL" {
		t.Errorf("metadata command = %v", meta["command"])
	}
	if id, _ := meta["run_id"].(string); id == "" {
		t.Errorf("metadata run_id is empty")
	}
	if out.Kind() != fins.KindBasket {
		t.Errorf("Kind() = %v, want basket", out.Kind())
	}
}

func TestInterpretHandlerPanic(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(KindChain, HandlerFunc(Signature{Input: InputAny}, execChain))
	reg.MustRegister(KindBasket, HandlerFunc(Signature{Input: InputNone, Output: fins.KindBasket}, func(Node, *Env) (fins.Output, error) {
		panic("boom")
	}))
	in := NewInterpreter(reg, storage.NewRouter(storage.NewMemory(), storage.NewMemory()))
	out := in.Interpret(context.Background(), "AAPL")
	if !out.IsError() || !strings.Contains(out.String(), "boom") {
		t.Errorf("Interpret() = %v, want the panic as an error", out)
	}

	out = in.Interpret(context.Background(), "sort pe")
	if !errors.Is(out.Err(), fins.ErrUnknownCommand) {
		t.Errorf("Interpret() = %v, want ErrUnknownCommand", out)
	}
}

func TestRegistry(t *testing.T) {
	reg := Builtins()
	if err := reg.Check(); err != nil {
		t.Errorf("Builtins().Check() = %v", err)
	}
	if got := len(reg.Kinds()); got != len(AllKinds) {
		t.Errorf("len(Kinds()) = %d, want %d", got, len(AllKinds))
	}
	h, _ := reg.Lookup(KindSort)
	if err := reg.Register(KindSort, h); err == nil {
		t.Errorf("Register() of an existing kind succeeded")
	}
	if err := NewRegistry().Check(); !errors.Is(err, fins.ErrUnknownCommand) {
		t.Errorf("NewRegistry().Check() = %v, want ErrUnknownCommand", err)
	}
}
