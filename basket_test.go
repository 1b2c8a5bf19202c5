package fins

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// weights returns the content of a basket as a ticker -> weight map.
func weights(b *Basket) map[string]float64 {
	m := make(map[string]float64)
	for _, it := range b.Items() {
		m[it.Symbol.String()] = it.Weight
	}
	return m
}

func tickers(b *Basket) []string {
	var out []string
	for _, s := range b.Symbols() {
		out = append(out, s.String())
	}
	return out
}

func basket(items ...any) *Basket {
	var its []BasketItem
	for i := 0; i < len(items); i += 2 {
		its = append(its, BasketItem{Symbol: MustParseSymbol(items[i].(string)), Weight: items[i+1].(float64)})
	}
	return NewBasket(its...)
}

func TestNewBasket_MergesDuplicates(t *testing.T) {
	b := basket("AAPL", 1.0, "MSFT", 2.0, "AAPL", 3.0)
	want := map[string]float64{"AAPL": 4, "MSFT": 2}
	if diff := cmp.Diff(want, weights(b)); diff != "" {
		t.Errorf("NewBasket() mismatch (-want +got):\n%s", diff)
	}
	if got := tickers(b); !cmp.Equal(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("NewBasket() order = %v", got)
	}
}

func TestUnion(t *testing.T) {
	a := basket("AAPL", 1.0, "MSFT", 1.0, "GOOGL", 1.0)
	b := basket("GOOGL", 1.0, "NFLX", 7.0)
	got := Union(a, b)
	want := map[string]float64{"AAPL": 1, "MSFT": 1, "GOOGL": 2, "NFLX": 7}
	if diff := cmp.Diff(want, weights(got)); diff != "" {
		t.Errorf("Union() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAPL", "MSFT", "GOOGL", "NFLX"}, tickers(got)); diff != "" {
		t.Errorf("Union() order mismatch (-want +got):\n%s", diff)
	}
	// operands are untouched
	if w, _ := a.Weight(MustParseSymbol("GOOGL")); w != 1 {
		t.Errorf("Union() modified its operand: GOOGL = %v", w)
	}
}

func TestUnion_Commutative(t *testing.T) {
	a := basket("AAPL", 1.0, "MSFT", 2.5)
	b := basket("MSFT", 1.0, "TSLA", 3.0)
	if diff := cmp.Diff(weights(Union(a, b)), weights(Union(b, a))); diff != "" {
		t.Errorf("Union() not commutative (-ab +ba):\n%s", diff)
	}
}

func TestUnion_Columns(t *testing.T) {
	a := basket("AAPL", 1.0).WithColumn(ColumnSpec{Type: "pe"}).WithColumn(ColumnSpec{Type: "cagr", Alias: "growth", Period: "5y"})
	b := basket("MSFT", 1.0).WithColumn(ColumnSpec{Type: "cagr", Alias: "growth", Period: "10y"}).WithColumn(ColumnSpec{Type: "mcap"})
	got := Union(a, b).Columns()
	want := []ColumnSpec{
		{Type: "pe"},
		{Type: "cagr", Alias: "growth", Period: "5y"},
		{Type: "mcap"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Union().Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestUnion_ColumnValues(t *testing.T) {
	aapl, msft := MustParseSymbol("AAPL"), MustParseSymbol("MSFT")
	a := basket("AAPL", 1.0).
		WithColumn(ColumnSpec{Type: "pe"}).
		WithColumn(ColumnSpec{Type: "cagr", Alias: "growth", Period: "5y"})
	a = a.WithValues("pe", map[Symbol]Value{aapl: Number(30)})
	b := basket("MSFT", 1.0).
		WithColumn(ColumnSpec{Type: "pe"}).
		WithColumn(ColumnSpec{Type: "cagr", Alias: "growth", Period: "10y"})
	b = b.WithValues("pe", map[Symbol]Value{msft: Number(35)}).
		WithValues("growth", map[Symbol]Value{msft: Number(0.2)})

	got := Union(a, b)
	if !got.HasValue("pe", aapl) || !got.HasValue("pe", msft) {
		t.Errorf("Union() lost values of the shared pe column")
	}
	if got.HasValue("growth", msft) {
		t.Errorf("Union() kept a 10y growth value under a 5y growth column")
	}
	if b.HasValue("pe", aapl) {
		t.Errorf("Union() modified its operand")
	}
}

func TestIntersection(t *testing.T) {
	a := basket("AAPL", 3.0, "MSFT", 1.0, "GOOGL", 2.0)
	b := basket("GOOGL", 5.0, "AAPL", 1.0, "NFLX", 1.0)
	got := Intersection(a, b)
	want := map[string]float64{"AAPL": 1, "GOOGL": 2}
	if diff := cmp.Diff(want, weights(got)); diff != "" {
		t.Errorf("Intersection() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(weights(got), weights(Intersection(b, a))); diff != "" {
		t.Errorf("Intersection() not commutative (-ab +ba):\n%s", diff)
	}
}

func TestIntersection_Self(t *testing.T) {
	a := basket("AAPL", 3.0, "MSFT", 1.5)
	got := Intersection(a, a)
	if !got.Equal(a) {
		t.Errorf("Intersection(a, a) = %v, want %v", got.Items(), a.Items())
	}
}

func TestDifference(t *testing.T) {
	a := basket("AAPL", 2.0, "MSFT", 1.0, "GOOGL", 1.0).WithColumn(ColumnSpec{Type: "pe"})
	b := basket("MSFT", 9.0).WithColumn(ColumnSpec{Type: "mcap"})
	got := Difference(a, b)
	want := map[string]float64{"AAPL": 2, "GOOGL": 1}
	if diff := cmp.Diff(want, weights(got)); diff != "" {
		t.Errorf("Difference() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ColumnSpec{{Type: "pe"}}, got.Columns()); diff != "" {
		t.Errorf("Difference().Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestDifference_Complement(t *testing.T) {
	a := basket("AAPL", 2.0, "MSFT", 1.0, "GOOGL", 1.5)
	// Intersection takes the min weight, so the property holds when the
	// common symbols weigh at least as much in b as in a.
	b := basket("MSFT", 4.0, "GOOGL", 1.5, "TSLA", 1.0)
	got := Union(Difference(a, b), Intersection(a, b))
	if diff := cmp.Diff(weights(a), weights(got)); diff != "" {
		t.Errorf("Union(Difference, Intersection) mismatch (-want +got):\n%s", diff)
	}
}

func TestScale(t *testing.T) {
	a := basket("AAPL", 2.0, "MSFT", 1.0).WithColumn(ColumnSpec{Type: "pe"})
	got := a.Scale(1.5)
	want := map[string]float64{"AAPL": 3, "MSFT": 1.5}
	if diff := cmp.Diff(want, weights(got)); diff != "" {
		t.Errorf("Scale() mismatch (-want +got):\n%s", diff)
	}
	if len(got.Columns()) != 1 {
		t.Errorf("Scale() dropped columns")
	}
}

func TestSortBy(t *testing.T) {
	a := basket("MSFT", 1.0, "NFLX", 1.0, "AAPL", 1.0, "GOOGL", 1.0, "TSLA", 1.0)
	values := map[string]Value{
		"MSFT":  Number(30),
		"AAPL":  Number(10),
		"GOOGL": Number(30),
		"TSLA":  Number(-5),
		// NFLX is missing and sorts as 0
	}
	key := func(s Symbol) Value { return values[s.Ticker] }

	testCases := []struct {
		name      string
		ascending bool
		want      []string
	}{
		{"ascending", true, []string{"TSLA", "NFLX", "AAPL", "GOOGL", "MSFT"}},
		{"descending", false, []string{"GOOGL", "MSFT", "AAPL", "NFLX", "TSLA"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tickers(a.SortBy(key, tc.ascending))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("SortBy() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortBy_Text(t *testing.T) {
	a := basket("XOM", 1.0, "AAPL", 1.0, "JPM", 1.0)
	sectors := map[string]Value{"XOM": Text("Energy"), "AAPL": Text("Technology"), "JPM": Text("Financial")}
	got := tickers(a.SortBy(func(s Symbol) Value { return sectors[s.Ticker] }, true))
	if diff := cmp.Diff([]string{"XOM", "JPM", "AAPL"}, got); diff != "" {
		t.Errorf("SortBy() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	a := basket("AAPL", 1.0, "MSFT", 2.0, "NFLX", 3.0)
	got := a.Filter(func(it BasketItem) bool { return it.Weight >= 2 })
	if diff := cmp.Diff([]string{"MSFT", "NFLX"}, tickers(got)); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if a.Len() != 3 {
		t.Errorf("Filter() modified its receiver")
	}
}

func TestWithValues(t *testing.T) {
	aapl, msft := MustParseSymbol("AAPL"), MustParseSymbol("MSFT")
	a := basket("AAPL", 1.0, "MSFT", 1.0).WithColumn(ColumnSpec{Type: "pe"})
	b := a.WithValues("pe", map[Symbol]Value{aapl: Number(30), MustParseSymbol("TSLA"): Number(80)})
	if a.HasValue("pe", aapl) {
		t.Errorf("WithValues() modified its receiver")
	}
	if got := b.Value("pe", aapl); got != Number(30) {
		t.Errorf("Value(pe, AAPL) = %v, want 30", got)
	}
	if b.HasValue("pe", MustParseSymbol("TSLA")) {
		t.Errorf("WithValues() cached a value for a symbol not in the basket")
	}
	// values follow items through the algebra
	c := Difference(b, NewBasketOf(aapl))
	if c.HasValue("pe", aapl) || c.HasValue("pe", msft) {
		t.Errorf("Difference() kept stale values")
	}
	// replacing a column drops its values
	d := b.WithColumn(ColumnSpec{Type: "pe", Params: map[string]string{"mode": "forward"}})
	if d.HasValue("pe", aapl) {
		t.Errorf("WithColumn() kept values of the replaced column")
	}
}

func TestBasket_JSON(t *testing.T) {
	aapl := MustParseSymbol("AAPL")
	a := basket("AAPL", 2.0, "SAP:XETRA", 1.0).
		WithColumn(ColumnSpec{Type: "cagr", Alias: "growth", StartYear: 2015, EndYear: 2020}).
		WithValues("growth", map[Symbol]Value{aapl: Number(0.12)})
	a.Name, a.Note = "tech", "my favorites"

	content, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	got := new(Basket)
	if err := json.Unmarshal(content, got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(a) || got.Name != "tech" || got.Note != "my favorites" {
		t.Errorf("Unmarshal(Marshal()) = %v, want %v", got.Items(), a.Items())
	}
	if diff := cmp.Diff(a.Columns(), got.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if v := got.Value("growth", aapl); v != Number(0.12) {
		t.Errorf("Value(growth, AAPL) = %v, want 0.12", v)
	}
}

func TestBasket_String(t *testing.T) {
	unit := basket("MSFT", 1.0, "AAPL", 1.0)
	if got, want := unit.String(), "AAPL          \nMSFT          \n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	weighted := basket("AAPL", 1.0, "MSFT", 3.0)
	want := "      3.00  MSFT          \n      1.00  AAPL          \n"
	if got := weighted.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
