package fins

import (
	"encoding/json"
	"fmt"
)

// Function is a named command stored in a variable and run by "!name".
type Function struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Codec encodes the data of Outputs for the storage package.
type Codec struct{}

// Encode returns the kind and the JSON form of data.
func (Codec) Encode(data any) (string, json.RawMessage, error) {
	var typ string
	switch data.(type) {
	case *Basket:
		typ = string(KindBasket)
	case float64:
		typ = string(KindNumber)
	case string:
		typ = string(KindText)
	case bool:
		typ = string(KindBoolean)
	case Function, *Function:
		typ = "function"
	default:
		return "", nil, fmt.Errorf("%w: cannot store %T", ErrTypeMismatch, data)
	}
	raw, err := json.Marshal(data)
	return typ, raw, err
}

// Decode reverses Encode.
func (Codec) Decode(typ string, raw json.RawMessage) (any, error) {
	var err error
	switch Kind(typ) {
	case KindBasket:
		b := new(Basket)
		err = json.Unmarshal(raw, b)
		return b, err
	case KindNumber:
		var f float64
		err = json.Unmarshal(raw, &f)
		return f, err
	case KindText:
		var s string
		err = json.Unmarshal(raw, &s)
		return s, err
	case KindBoolean:
		var b bool
		err = json.Unmarshal(raw, &b)
		return b, err
	case "function":
		var f Function
		err = json.Unmarshal(raw, &f)
		return f, err
	default:
		return nil, fmt.Errorf("%w: unknown stored type %q", ErrTypeMismatch, typ)
	}
}
