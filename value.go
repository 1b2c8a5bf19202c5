package fins

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind is the kind of data held in a Value.
type ValueKind int

const (
	NoValue ValueKind = iota
	NumberValue
	TextValue
)

// Value is a column value computed for one symbol: none, a number or a text.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// None returns the missing value.
func None() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: NumberValue, num: f} }

// Text returns a textual value.
func Text(s string) Value { return Value{kind: TextValue, text: s} }

// Kind returns the kind of value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether v is missing.
func (v Value) IsNone() bool { return v.kind == NoValue }

// Float returns the numeric value, and false if v is not a number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == NumberValue }

// Str returns the text value, and false if v is not a text.
func (v Value) Str() (string, bool) { return v.text, v.kind == TextValue }

func (v Value) String() string {
	switch v.kind {
	case NumberValue:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case TextValue:
		return v.text
	default:
		return ""
	}
}

// Compare compares two values of the same kind. Text is compared case
// insensitively. ok is false when the kinds differ or a value is missing.
func (v Value) Compare(o Value) (c int, ok bool) {
	if v.kind != o.kind || v.kind == NoValue {
		return 0, false
	}
	if v.kind == TextValue {
		return strings.Compare(strings.ToLower(v.text), strings.ToLower(o.text)), true
	}
	switch {
	case v.num < o.num:
		return -1, true
	case v.num > o.num:
		return 1, true
	default:
		return 0, true
	}
}

// MarshalJSON encodes none as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case NumberValue:
		return json.Marshal(v.num)
	case TextValue:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, numbers and strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	switch x := x.(type) {
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		*v = None()
	}
	return nil
}
