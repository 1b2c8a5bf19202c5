package fins

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Token is a command argument: either a literal ("asc", "3x", "10B",
// "Technology") or a reference to a storage path ("$a", "/lists/tech").
type Token struct {
	raw string
}

// NewToken returns the token for s.
func NewToken(s string) Token { return Token{raw: s} }

func (t Token) String() string { return t.raw }

// IsReference reports whether t refers to a storage path.
func (t Token) IsReference() bool {
	return strings.HasPrefix(t.raw, "$") || strings.HasPrefix(t.raw, "/")
}

// IsLiteral reports whether t is a literal value.
func (t Token) IsLiteral() bool { return !t.IsReference() }

// Path returns the storage path t refers to.
func (t Token) Path() (string, error) {
	if !t.IsReference() {
		return "", fmt.Errorf("token %q is not a reference", t.raw)
	}
	return t.raw, nil
}

// Literal returns the literal text of t.
func (t Token) Literal() (string, error) {
	if !t.IsLiteral() {
		return "", fmt.Errorf("token %q is not a literal", t.raw)
	}
	return t.raw, nil
}

// Number parses t as a number with an optional K, M, B or T suffix.
func (t Token) Number() (float64, error) { return ParseNumber(t.raw) }

// Weight parses t as a weight with an optional x suffix.
func (t Token) Weight() (float64, error) { return ParseWeight(t.raw) }

var multipliers = map[byte]decimal.Decimal{
	'K': decimal.New(1, 3),
	'M': decimal.New(1, 6),
	'B': decimal.New(1, 9),
	'T': decimal.New(1, 12),
}

// ParseNumber parses a decimal number. A trailing K, M, B or T (in any case)
// multiplies it by 1e3, 1e6, 1e9 or 1e12.
func ParseNumber(s string) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	mult := decimal.New(1, 0)
	if m, ok := multipliers[s[len(s)-1]]; ok {
		mult, s = m, s[:len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d.Mul(mult).InexactFloat64(), nil
}

// ParseWeight parses a weight like "3x", "1.5x" or "2". The x suffix is optional.
func ParseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSuffix(s, "x"), "X"))
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
