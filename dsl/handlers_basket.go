package dsl

import (
	"fmt"

	"github.com/etnz/fins"
)

func execChain(n Node, env *Env) (fins.Output, error) {
	c := n.(*Chain)
	prev := env.Input
	for _, st := range c.Stages {
		logged := prev.WithLog(describe(st))
		out, err := env.Run(st, prev)
		if err != nil {
			return fins.Error(err).After(logged), nil
		}
		if out.IsError() {
			return out.After(logged), nil
		}
		prev = out.After(logged)
	}
	return prev, nil
}

func execBasket(n Node, env *Env) (fins.Output, error) {
	b, err := env.basket(n.(*BasketNode).Operands)
	if err != nil {
		return fins.Output{}, err
	}
	return fins.NewOutput(b), nil
}

func execSymbol(n Node, _ *Env) (fins.Output, error) {
	return fins.NewOutput(fins.NewBasketOf(n.(*SymbolNode).Symbol)), nil
}

func execOperand(n Node, env *Env) (fins.Output, error) {
	op := n.(*OperandNode)
	b, err := env.basket(op.Ref)
	if err != nil {
		return fins.Output{}, err
	}
	if op.HasWeight {
		b = b.Scale(op.Weight)
	}
	return fins.NewOutput(b), nil
}

func execOperandGroup(n Node, env *Env) (fins.Output, error) {
	g := n.(*OperandGroup)
	result := fins.NewBasket()
	for _, op := range g.Operands {
		b, err := env.basket(op)
		if err != nil {
			return fins.Output{}, err
		}
		result = fins.Union(result, b)
	}
	return fins.NewOutput(result), nil
}

// setOperand returns the shared shape of union, difference and intersection nodes.
func setOperand(n Node) *setOperation {
	switch n := n.(type) {
	case *UnionNode:
		return &n.setOperation
	case *DifferenceNode:
		return &n.setOperation
	case *IntersectionNode:
		return &n.setOperation
	}
	panic(fmt.Sprintf("not a set operation: %T", n))
}

func execSetOperation(op func(a, b *fins.Basket) *fins.Basket) func(Node, *Env) (fins.Output, error) {
	return func(n Node, env *Env) (fins.Output, error) {
		in, _ := env.Input.Basket()
		right, err := env.basket(setOperand(n).Right)
		if err != nil {
			return fins.Output{}, err
		}
		out := op(in, right)
		return fins.NewOutput(out).WithLog(fmt.Sprintf("%d items", out.Len())), nil
	}
}

// execSpread replaces a symbol by its holdings, weighted by the symbol's
// weight. Without input it returns the holdings. A symbol that is not in the
// input basket is added with its holdings at weight 1.
func execSpread(n Node, env *Env) (fins.Output, error) {
	s := n.(*SpreadNode)
	holdings, err := env.Source().Holdings(env.Context(), s.Symbol)
	if err != nil {
		return fins.Output{}, fmt.Errorf("cannot spread %s: %w", s.Symbol, err)
	}
	spread := fins.NewBasket(holdings...)
	if env.Input.IsVoid() {
		return fins.NewOutput(spread), nil
	}
	in, ok := env.Input.Basket()
	if !ok {
		return fins.Output{}, fmt.Errorf("%w: cannot spread into a %s", fins.ErrTypeMismatch, env.Input.Kind())
	}
	if w, ok := in.Weight(s.Symbol); ok {
		in = fins.Difference(in, fins.NewBasketOf(s.Symbol))
		spread = spread.Scale(w)
	}
	out := fins.Union(in, spread)
	return fins.NewOutput(out).WithLog(fmt.Sprintf("%s spread into %d holdings", s.Symbol, len(holdings))), nil
}
