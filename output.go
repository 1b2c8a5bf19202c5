package fins

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind is the kind of data carried by an Output.
type Kind string

const (
	KindBasket  Kind = "basket"
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
	KindError   Kind = "error"
	KindVoid    Kind = "void"
)

// Output is the result of a command: a basket, number, text, boolean, error
// or nothing, with free form metadata and the log of executed commands.
//
// An Output is immutable, the With* methods return modified copies.
type Output struct {
	kind     Kind
	data     any
	metadata map[string]any
	log      []string
}

// NewOutput returns an Output whose kind is inferred from v.
// Unsupported types yield an error Output.
func NewOutput(v any) Output {
	switch v := v.(type) {
	case nil:
		return Output{kind: KindVoid}
	case *Basket:
		if v == nil {
			return Output{kind: KindVoid}
		}
		return Output{kind: KindBasket, data: v}
	case bool:
		return Output{kind: KindBoolean, data: v}
	case float64:
		return Output{kind: KindNumber, data: v}
	case float32:
		return Output{kind: KindNumber, data: float64(v)}
	case int:
		return Output{kind: KindNumber, data: float64(v)}
	case int64:
		return Output{kind: KindNumber, data: float64(v)}
	case string:
		return Output{kind: KindText, data: v}
	case error:
		return Output{kind: KindError, data: v}
	default:
		return Error(fmt.Errorf("%w: unsupported output data %T", ErrTypeMismatch, v))
	}
}

// OutputOf returns an Output of the given kind. It fails if v does not match kind.
func OutputOf(kind Kind, v any) (Output, error) {
	if kind == KindError {
		if s, ok := v.(string); ok {
			v = errors.New(s)
		}
	}
	o := NewOutput(v)
	if o.kind != kind {
		return Output{}, fmt.Errorf("%w: cannot build a %s output from %T", ErrTypeMismatch, kind, v)
	}
	return o, nil
}

// Void returns the empty Output.
func Void() Output { return Output{kind: KindVoid} }

// Error returns an error Output.
func Error(err error) Output { return Output{kind: KindError, data: err} }

// Errorf returns an error Output with a formatted message.
func Errorf(format string, args ...any) Output { return Error(fmt.Errorf(format, args...)) }

// Kind returns the kind of o.
func (o Output) Kind() Kind {
	if o.kind == "" {
		return KindVoid
	}
	return o.kind
}

// Data returns the raw data of o.
func (o Output) Data() any { return o.data }

// IsError reports whether o is an error.
func (o Output) IsError() bool { return o.kind == KindError }

// IsVoid reports whether o carries nothing.
func (o Output) IsVoid() bool { return o.Kind() == KindVoid }

// Err returns the error carried by o, or nil.
func (o Output) Err() error {
	err, _ := o.data.(error)
	return err
}

// Basket returns the basket carried by o.
func (o Output) Basket() (*Basket, bool) {
	b, ok := o.data.(*Basket)
	return b, ok
}

// Number returns the number carried by o.
func (o Output) Number() (float64, bool) {
	f, ok := o.data.(float64)
	return f, ok
}

// Text returns the text carried by o.
func (o Output) Text() (string, bool) {
	s, ok := o.data.(string)
	return s, ok
}

// Bool returns the boolean carried by o.
func (o Output) Bool() (bool, bool) {
	b, ok := o.data.(bool)
	return b, ok
}

// Metadata returns a copy of the metadata.
func (o Output) Metadata() map[string]any { return maps.Clone(o.metadata) }

// Log returns a copy of the log.
func (o Output) Log() []string { return slices.Clone(o.log) }

// WithLog returns a copy of o with messages appended to its log.
func (o Output) WithLog(messages ...string) Output {
	o.log = append(slices.Clone(o.log), messages...)
	return o
}

// WithMetadata returns a copy of o with the metadata key set.
func (o Output) WithMetadata(key string, value any) Output {
	m := maps.Clone(o.metadata)
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = value
	o.metadata = m
	return o
}

// WithoutLog returns a copy of o with an empty log.
func (o Output) WithoutLog() Output {
	o.log = nil
	return o
}

// After returns a copy of o whose log starts with the log of prev.
func (o Output) After(prev Output) Output {
	o.log = append(slices.Clone(prev.log), o.log...)
	return o
}

// Serialized is the serializable form of an Output.
type Serialized struct {
	Type     Kind           `json:"type"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata"`
	Log      []string       `json:"log"`
}

// Serializable returns the structure to encode o.
func (o Output) Serializable() Serialized {
	s := Serialized{
		Type:     o.Kind(),
		Data:     o.data,
		Metadata: o.Metadata(),
		Log:      o.Log(),
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	if s.Log == nil {
		s.Log = []string{}
	}
	if err := o.Err(); err != nil {
		s.Data = err.Error()
	}
	return s
}

// MarshalJSON encodes the serializable form of o.
func (o Output) MarshalJSON() ([]byte, error) { return json.Marshal(o.Serializable()) }

// String returns "Error: <message>" for errors, the empty string for void and
// the indented JSON of the serializable form for other kinds.
func (o Output) String() string {
	switch o.Kind() {
	case KindError:
		return "Error: " + o.Err().Error()
	case KindVoid:
		return ""
	default:
		content, err := json.MarshalIndent(o.Serializable(), "", "  ")
		if err != nil {
			return "Error: " + err.Error()
		}
		return string(content)
	}
}
