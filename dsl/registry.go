package dsl

import (
	"fmt"
	"slices"

	"github.com/etnz/fins"
)

// Shape is the kind of Output a handler accepts or produces.
type Shape int

const (
	InputNone   Shape = iota // no chained input allowed
	InputAny                 // any input, including void
	InputBasket              // a basket is required
)

func (s Shape) String() string {
	switch s {
	case InputNone:
		return "none"
	case InputAny:
		return "any"
	case InputBasket:
		return "basket"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Signature declares how a handler binds to its input.
type Signature struct {
	Input  Shape
	Output fins.Kind
	// ExplicitLeft allows a left operand written in the command ("$a + B")
	// to be used in place of the chained input.
	ExplicitLeft bool
}

// Handler executes one kind of node.
type Handler interface {
	Signature() Signature
	Execute(n Node, env *Env) (fins.Output, error)
}

// HandlerFunc builds a Handler from a signature and a function.
func HandlerFunc(sig Signature, fn func(Node, *Env) (fins.Output, error)) Handler {
	return handler{sig: sig, fn: fn}
}

type handler struct {
	sig Signature
	fn  func(Node, *Env) (fins.Output, error)
}

func (h handler) Signature() Signature                          { return h.sig }
func (h handler) Execute(n Node, env *Env) (fins.Output, error) { return h.fn(n, env) }

// Registry maps node kinds to their handler.
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

// Register associates h with kind. Registering a kind twice is an error.
func (r *Registry) Register(kind Kind, h Handler) error {
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("handler for %q already registered", kind)
	}
	r.handlers[kind] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind Kind, h Handler) {
	if err := r.Register(kind, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for kind.
func (r *Registry) Lookup(kind Kind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Check returns an error if a node kind produced by the parser has no handler.
func (r *Registry) Check() error {
	var missing []Kind
	for _, k := range AllKinds {
		if _, ok := r.handlers[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no handler for %v", fins.ErrUnknownCommand, missing)
	}
	return nil
}

// Builtins returns a registry with the handlers of every node kind.
func Builtins() *Registry {
	r := NewRegistry()
	r.MustRegister(KindChain, HandlerFunc(Signature{Input: InputAny, Output: fins.KindVoid}, execChain))
	r.MustRegister(KindBasket, HandlerFunc(Signature{Input: InputNone, Output: fins.KindBasket}, execBasket))
	r.MustRegister(KindSymbol, HandlerFunc(Signature{Input: InputNone, Output: fins.KindBasket}, execSymbol))
	r.MustRegister(KindVariable, HandlerFunc(Signature{Input: InputAny, Output: fins.KindVoid}, execVariable))
	r.MustRegister(KindOperand, HandlerFunc(Signature{Input: InputNone, Output: fins.KindBasket}, execOperand))
	r.MustRegister(KindOperandGroup, HandlerFunc(Signature{Input: InputNone, Output: fins.KindBasket}, execOperandGroup))

	setOp := Signature{Input: InputBasket, Output: fins.KindBasket, ExplicitLeft: true}
	r.MustRegister(KindUnion, HandlerFunc(setOp, execSetOperation(fins.Union)))
	r.MustRegister(KindDifference, HandlerFunc(setOp, execSetOperation(fins.Difference)))
	r.MustRegister(KindIntersection, HandlerFunc(setOp, execSetOperation(fins.Intersection)))

	transform := Signature{Input: InputBasket, Output: fins.KindBasket, ExplicitLeft: true}
	r.MustRegister(KindSort, HandlerFunc(transform, execSort))
	r.MustRegister(KindFilter, HandlerFunc(transform, execFilter))
	r.MustRegister(KindColumn, HandlerFunc(transform, execColumn))
	r.MustRegister(KindSpread, HandlerFunc(Signature{Input: InputAny, Output: fins.KindBasket, ExplicitLeft: true}, execSpread))

	r.MustRegister(KindInfo, HandlerFunc(Signature{Input: InputAny, Output: fins.KindText}, execInfo))
	r.MustRegister(KindDefine, HandlerFunc(Signature{Input: InputNone, Output: fins.KindVoid}, execDefine))
	r.MustRegister(KindCall, HandlerFunc(Signature{Input: InputAny, Output: fins.KindVoid}, execCall))
	r.MustRegister(KindLock, HandlerFunc(Signature{Input: InputAny, Output: fins.KindVoid}, execLock))
	r.MustRegister(KindUnlock, HandlerFunc(Signature{Input: InputAny, Output: fins.KindVoid}, execUnlock))
	return r
}
