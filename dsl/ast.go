package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/fins"
)

// Kind names a node kind. Handlers are registered by Kind.
type Kind string

const (
	KindChain        Kind = "command_chain"
	KindBasket       Kind = "basket"
	KindSymbol       Kind = "symbol"
	KindVariable     Kind = "variable"
	KindOperand      Kind = "operand"
	KindOperandGroup Kind = "operand_group"
	KindUnion        Kind = "union"
	KindDifference   Kind = "difference"
	KindIntersection Kind = "intersection"
	KindSort         Kind = "sort_command"
	KindFilter       Kind = "filter_command"
	KindColumn       Kind = "column_command"
	KindInfo         Kind = "info_command"
	KindDefine       Kind = "function_definition"
	KindCall         Kind = "function_call"
	KindLock         Kind = "lock_command"
	KindUnlock       Kind = "unlock_command"
	KindSpread       Kind = "spread_command"
)

// AllKinds lists every node kind the parser can produce.
var AllKinds = []Kind{
	KindChain, KindBasket, KindSymbol, KindVariable, KindOperand, KindOperandGroup,
	KindUnion, KindDifference, KindIntersection, KindSort, KindFilter, KindColumn,
	KindInfo, KindDefine, KindCall, KindLock, KindUnlock, KindSpread,
}

// Node is a node of the parsed command tree.
//
// The set of nodes is closed: only types of this package implement Node.
// String returns the node in the command notation.
type Node interface {
	Kind() Kind
	Span() Span
	String() string
	node()
}

// leftOperand is implemented by commands accepting an explicit left operand,
// as in "$a + NFLX" or "$tech sort pe".
type leftOperand interface {
	Node
	LeftOperand() Node
}

type pos struct{ span Span }

func (p pos) Span() Span { return p.span }
func (pos) node()        {}

// Chain is a sequence of stages separated by "->".
type Chain struct {
	pos
	Stages []Node
}

func (*Chain) Kind() Kind { return KindChain }
func (n *Chain) String() string {
	parts := make([]string, len(n.Stages))
	for i, s := range n.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// BasketNode is a literal basket: "AAPL 2x MSFT $other".
type BasketNode struct {
	pos
	Operands *OperandGroup
}

func (*BasketNode) Kind() Kind       { return KindBasket }
func (n *BasketNode) String() string { return n.Operands.String() }

// SymbolNode is a ticker.
type SymbolNode struct {
	pos
	Symbol fins.Symbol
}

func (*SymbolNode) Kind() Kind       { return KindSymbol }
func (n *SymbolNode) String() string { return n.Symbol.String() }

// VariableNode is a storage path. As a whole stage it reads the path, or
// stores its chained input in it.
type VariableNode struct {
	pos
	Path string
}

func (*VariableNode) Kind() Kind       { return KindVariable }
func (n *VariableNode) String() string { return n.Path }

// OperandNode is an optionally weighted symbol or variable.
type OperandNode struct {
	pos
	Weight    float64
	HasWeight bool
	Ref       Node // *SymbolNode or *VariableNode
}

func (*OperandNode) Kind() Kind { return KindOperand }
func (n *OperandNode) String() string {
	if n.HasWeight {
		return formatNumber(n.Weight) + "x " + n.Ref.String()
	}
	return n.Ref.String()
}

// OperandGroup is a list of operands, combined by union.
type OperandGroup struct {
	pos
	Operands []*OperandNode
}

func (*OperandGroup) Kind() Kind { return KindOperandGroup }
func (n *OperandGroup) String() string {
	parts := make([]string, len(n.Operands))
	for i, o := range n.Operands {
		parts[i] = o.String()
	}
	return strings.Join(parts, " ")
}

// setOperation is the shape shared by union, difference and intersection.
type setOperation struct {
	pos
	Left  Node // nil, *OperandGroup or another set operation
	Right *OperandGroup
}

func (n *setOperation) LeftOperand() Node { return n.Left }

func (n *setOperation) format(op string) string {
	if n.Left == nil {
		return op + " " + n.Right.String()
	}
	return n.Left.String() + " " + op + " " + n.Right.String()
}

// UnionNode is "+ operands".
type UnionNode struct{ setOperation }

func (*UnionNode) Kind() Kind       { return KindUnion }
func (n *UnionNode) String() string { return n.format("+") }

// DifferenceNode is "- operands".
type DifferenceNode struct{ setOperation }

func (*DifferenceNode) Kind() Kind       { return KindDifference }
func (n *DifferenceNode) String() string { return n.format("-") }

// IntersectionNode is "& operands".
type IntersectionNode struct{ setOperation }

func (*IntersectionNode) Kind() Kind       { return KindIntersection }
func (n *IntersectionNode) String() string { return n.format("&") }

// withLeft prefixes s with the left operand if any.
func withLeft(left Node, s string) string {
	if left == nil {
		return s
	}
	return left.String() + " " + s
}

// SortNode is "sort attribute [asc|desc]".
type SortNode struct {
	pos
	Left      Node
	Attribute string
	Ascending bool
}

func (*SortNode) Kind() Kind          { return KindSort }
func (n *SortNode) LeftOperand() Node { return n.Left }
func (n *SortNode) String() string {
	order := "desc"
	if n.Ascending {
		order = "asc"
	}
	return withLeft(n.Left, "sort "+n.Attribute+" "+order)
}

// FilterNode is "attribute op value". Numeric values are already expanded
// (10B is 1e10). Ref is set when the value is a storage path.
type FilterNode struct {
	pos
	Left      Node
	Attribute string
	Op        string // one of > < = >= <= !=
	Value     fins.Value
	Ref       string
}

func (*FilterNode) Kind() Kind          { return KindFilter }
func (n *FilterNode) LeftOperand() Node { return n.Left }
func (n *FilterNode) String() string {
	v := n.Ref
	if v == "" {
		v = n.Value.String()
		if _, ok := n.Value.Str(); ok {
			v = strconv.Quote(v)
		}
	}
	return withLeft(n.Left, n.Attribute+" "+n.Op+" "+v)
}

// ColumnNode attaches a column: "|alias type [Y1:Y2] period" or
// ".alias = .type(k=v)".
type ColumnNode struct {
	pos
	Left Node
	Spec fins.ColumnSpec
}

func (*ColumnNode) Kind() Kind          { return KindColumn }
func (n *ColumnNode) LeftOperand() Node { return n.Left }
func (n *ColumnNode) String() string    { return withLeft(n.Left, n.Spec.String()) }

// InfoNode is ": target". A nil Target describes the chained input.
type InfoNode struct {
	pos
	Target Node // nil, *SymbolNode or *VariableNode
}

func (*InfoNode) Kind() Kind { return KindInfo }
func (n *InfoNode) String() string {
	if n.Target == nil {
		return "info"
	}
	return "info " + n.Target.String()
}

// DefineNode is `DEFINE !name = "command"`.
type DefineNode struct {
	pos
	Name string
	Body string
}

func (*DefineNode) Kind() Kind       { return KindDefine }
func (n *DefineNode) String() string { return "DEFINE !" + n.Name + " = " + strconv.Quote(n.Body) }

// CallNode is "!name".
type CallNode struct {
	pos
	Name string
}

func (*CallNode) Kind() Kind       { return KindCall }
func (n *CallNode) String() string { return "!" + n.Name }

// LockNode is "lock path".
type LockNode struct {
	pos
	Path string
}

func (*LockNode) Kind() Kind       { return KindLock }
func (n *LockNode) String() string { return "lock " + n.Path }

// UnlockNode is "unlock path".
type UnlockNode struct {
	pos
	Path string
}

func (*UnlockNode) Kind() Kind       { return KindUnlock }
func (n *UnlockNode) String() string { return "unlock " + n.Path }

// SpreadNode is "..SYMBOL": the symbol is replaced by its holdings.
type SpreadNode struct {
	pos
	Left   Node
	Symbol fins.Symbol
}

func (*SpreadNode) Kind() Kind          { return KindSpread }
func (n *SpreadNode) LeftOperand() Node { return n.Left }
func (n *SpreadNode) String() string    { return withLeft(n.Left, ".."+n.Symbol.String()) }

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// FunctionPath returns the storage path of the function name.
func FunctionPath(name string) string { return "$!" + name }

// describe returns a one line description of n for logs.
func describe(n Node) string {
	return fmt.Sprintf("%s: %s", n.Kind(), n)
}
