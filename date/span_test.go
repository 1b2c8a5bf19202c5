package date

import (
	"testing"
	"time"
)

func TestParseSpan(t *testing.T) {
	testCases := []struct {
		in      string
		want    Span
		wantErr bool
	}{
		{in: "10y", want: Span{10, Yearly}},
		{in: "6M", want: Span{6, Monthly}},
		{in: "30d", want: Span{30, Daily}},
		{in: "2q", want: Span{2, Quarterly}},
		{in: "3w", want: Span{3, Weekly}},
		{in: "y", wantErr: true},
		{in: "10x", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSpan(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseSpan(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseSpan(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSpanEnding(t *testing.T) {
	end := New(2025, time.March, 31)
	testCases := []struct {
		span Span
		want Date
	}{
		{Span{10, Yearly}, New(2015, time.March, 31)},
		{Span{1, Quarterly}, New(2024, time.December, 31)},
		{Span{1, Monthly}, New(2025, time.March, 3)}, // February 31st
		{Span{2, Weekly}, New(2025, time.March, 17)},
		{Span{30, Daily}, New(2025, time.March, 1)},
	}
	for _, tc := range testCases {
		t.Run(tc.span.String(), func(t *testing.T) {
			got := tc.span.Ending(end)
			if got.From != tc.want || got.To != end {
				t.Errorf("Ending() = %v, want %v..%v", got, tc.want, end)
			}
		})
	}
}

func TestYears(t *testing.T) {
	r := Years(2020, 2022)
	if r.From != New(2020, 1, 1) || r.To != New(2022, 12, 31) {
		t.Errorf("Years(2020, 2022) = %v", r)
	}
	if got := r.To.Sub(r.From); got != 1095 {
		t.Errorf("Sub() = %d, want 1095", got)
	}
	if !r.Contains(r.From) || !r.Contains(r.To) || r.Contains(r.To.Add(1)) {
		t.Errorf("Contains() does not include exactly %v", r)
	}
}
