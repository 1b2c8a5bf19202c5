package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNew_Normalizes(t *testing.T) {
	testCases := []struct {
		got, want Date
	}{
		{New(2025, 13, 1), New(2026, time.January, 1)},
		{New(2025, time.March, 0), New(2025, time.February, 28)},
		{New(2024, time.February, 30), New(2024, time.March, 1)},
	}
	for _, tc := range testCases {
		if tc.got != tc.want {
			t.Errorf("New() = %v, want %v", tc.got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-07-01", want: New(2025, time.July, 1)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: "2025-02-30", wantErr: true},
		{in: "01/07/2025", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	d := New(2024, time.February, 28)
	if got := d.Add(1); got != New(2024, time.February, 29) {
		t.Errorf("Add(1) = %v", got)
	}
	if got := d.Add(2).Sub(d); got != 2 {
		t.Errorf("Sub() = %d, want 2", got)
	}
	if got := d.EndOfMonth(); got != New(2024, time.February, 29) {
		t.Errorf("EndOfMonth() = %v", got)
	}
	if !d.Before(d.Add(1)) || d.After(d.Add(1)) || d.Compare(d) != 0 {
		t.Errorf("comparisons of %v are inconsistent", d)
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		On   Date `json:"on"`
		Zero Date `json:"zero"`
	}
	if err := json.Unmarshal([]byte(`{"on": "2025-7-1", "zero": ""}`), &v); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if v.On != New(2025, time.July, 1) || !v.Zero.IsZero() {
		t.Errorf("Unmarshal() = %+v", v)
	}
	data, err := json.Marshal(v.On)
	if err != nil || string(data) != `"2025-07-01"` {
		t.Errorf("Marshal() = %s, %v", data, err)
	}
	if err := json.Unmarshal([]byte(`"July 1st"`), &v.On); err == nil {
		t.Error("Unmarshal(July 1st) succeeded")
	}
}
