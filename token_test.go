package fins

import "testing"

func TestParseWeight(t *testing.T) {
	testCases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "3x", want: 3},
		{in: "1.5", want: 1.5},
		{in: "1.5x", want: 1.5},
		{in: "2", want: 2},
		{in: "0.25X", want: 0.25},
		{in: "x", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseWeight(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseWeight(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseWeight(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "10B", want: 1.0e10},
		{in: "10b", want: 1.0e10},
		{in: "1.5K", want: 1500},
		{in: "2M", want: 2e6},
		{in: "3T", want: 3e12},
		{in: "0.5", want: 0.5},
		{in: "-12", want: -12},
		{in: "", wantErr: true},
		{in: "B", wantErr: true},
		{in: "10Z", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseNumber(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseNumber(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestToken(t *testing.T) {
	testCases := []struct {
		in  string
		ref bool
	}{
		{"$a", true},
		{"/lists/tech", true},
		{"asc", false},
		{"10B", false},
		{"Technology", false},
	}
	for _, tc := range testCases {
		tok := NewToken(tc.in)
		if got := tok.IsReference(); got != tc.ref {
			t.Errorf("NewToken(%q).IsReference() = %v, want %v", tc.in, got, tc.ref)
		}
		if got := tok.IsLiteral(); got == tc.ref {
			t.Errorf("NewToken(%q).IsLiteral() = %v, want %v", tc.in, got, !tc.ref)
		}
		_, errPath := tok.Path()
		_, errLit := tok.Literal()
		if (errPath == nil) != tc.ref || (errLit == nil) == tc.ref {
			t.Errorf("NewToken(%q) Path() err = %v, Literal() err = %v", tc.in, errPath, errLit)
		}
	}
	if n, err := NewToken("10B").Number(); err != nil || n != 1e10 {
		t.Errorf("Number() = %v, %v, want 1e10", n, err)
	}
	if w, err := NewToken("3x").Weight(); err != nil || w != 3 {
		t.Errorf("Weight() = %v, %v, want 3", w, err)
	}
}
