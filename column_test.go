package fins

import (
	"testing"
	"time"

	"github.com/etnz/fins/date"
)

func TestColumnSpec_Key(t *testing.T) {
	testCases := []struct {
		spec ColumnSpec
		want string
	}{
		{ColumnSpec{Type: "pe"}, "pe"},
		{ColumnSpec{Type: "pe", Alias: "ratio"}, "pe"},
		{ColumnSpec{Type: "cagr", StartYear: 2015, EndYear: 2020}, "cagr[2015:2020]"},
		{ColumnSpec{Type: "vol", Period: "1y"}, "vol 1y"},
		{ColumnSpec{Type: "rsi", Params: map[string]string{"length": "14", "field": "close"}}, "rsi(field=close,length=14)"},
	}
	for _, tc := range testCases {
		if got := tc.spec.Key(); got != tc.want {
			t.Errorf("%+v.Key() = %q, want %q", tc.spec, got, tc.want)
		}
	}
	if got := (ColumnSpec{Type: "pe", Alias: "ratio"}).String(); got != "|ratio pe" {
		t.Errorf("String() = %q", got)
	}
}

func TestColumnSpec_Range(t *testing.T) {
	today := date.New(2025, time.June, 15)
	testCases := []struct {
		name    string
		spec    ColumnSpec
		want    date.Range
		wantOK  bool
		wantErr bool
	}{
		{"none", ColumnSpec{Type: "cagr"}, date.Range{}, false, false},
		{"years", ColumnSpec{Type: "cagr", StartYear: 2015, EndYear: 2020}, date.Years(2015, 2020), true, false},
		{"open end", ColumnSpec{Type: "cagr", StartYear: 2020}, date.Range{From: date.New(2020, 1, 1), To: today}, true, false},
		{"period", ColumnSpec{Type: "cagr", Period: "5y"}, date.Range{From: date.New(2020, time.June, 15), To: today}, true, false},
		{"reversed", ColumnSpec{Type: "cagr", StartYear: 2020, EndYear: 2015}, date.Range{}, false, true},
		{"bad period", ColumnSpec{Type: "cagr", Period: "5z"}, date.Range{}, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := tc.spec.Range(today)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Range() error = %v, wantErr %v", err, tc.wantErr)
			}
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("Range() = %v, %v, want %v, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
