package date

import (
	"slices"
	"testing"
)

func TestAppend(t *testing.T) {
	h := new(History[string])
	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}
	// out of order, with a replaced day
	h.Append(New(2025, 7, 1), "jul").Append(New(2024, 7, 1), "old").Append(New(2025, 1, 1), "jan")
	h.Append(New(2024, 7, 1), "last year")

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if got, want := h.Slice(), []string{"last year", "jan", "jul"}; !slices.Equal(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}
	if d, _ := h.First(); d != New(2024, 7, 1) {
		t.Errorf("First() = %v", d)
	}
	if d, v := h.Latest(); d != New(2025, 7, 1) || v != "jul" {
		t.Errorf("Latest() = %v %v", d, v)
	}
}

func TestBetween(t *testing.T) {
	h := new(History[float64])
	for i := 1; i <= 10; i++ {
		h.Append(New(2025, 1, i), float64(i))
	}
	got := h.Between(Range{From: New(2025, 1, 3), To: New(2025, 1, 5)})
	if got.Len() != 3 {
		t.Fatalf("Between().Len() = %d, want 3", got.Len())
	}
	if d, v := got.First(); d != New(2025, 1, 3) || v != 3 {
		t.Errorf("Between().First() = %v %v, want 2025-01-03 3", d, v)
	}
	if d, v := got.Latest(); d != New(2025, 1, 5) || v != 5 {
		t.Errorf("Between().Latest() = %v %v, want 2025-01-05 5", d, v)
	}
	if s := got.Slice(); len(s) != 3 || s[1] != 4 {
		t.Errorf("Slice() = %v", s)
	}

	// bounds between days, and outside the series
	if n := h.Between(Range{From: New(2024, 12, 1), To: New(2025, 1, 2)}).Len(); n != 2 {
		t.Errorf("Between(before start) has %d days, want 2", n)
	}
	if n := h.Between(Range{From: New(2025, 2, 1), To: New(2025, 3, 1)}).Len(); n != 0 {
		t.Errorf("Between(after end) has %d days, want 0", n)
	}
	if n := h.Between(Range{From: New(2025, 1, 5), To: New(2025, 1, 3)}).Len(); n != 0 {
		t.Errorf("Between(reversed) has %d days, want 0", n)
	}
	got.Append(New(2025, 1, 4), 40)
	if s := h.Slice(); s[3] != 4 {
		t.Error("Between() shares its values with the original")
	}
}
