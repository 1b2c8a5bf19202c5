package dsl

import (
	"strconv"

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
	"github.com/etnz/fins/storage"
)

// Parse parses a command into its tree.
//
// Parse only checks the syntax: it does not know whether variables exist or
// column types are known. Errors are *SyntaxError.
func Parse(text string) (*Chain, error) {
	tokens, err := Lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.chain()
}

type parser struct {
	tokens []Token
	i      int
}

func (p *parser) peek() Token { return p.tokens[p.i] }

func (p *parser) peekAt(k int) Token {
	if p.i+k >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.i+k]
}

func (p *parser) next() Token {
	t := p.tokens[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

// last returns the span of the last consumed token.
func (p *parser) last() Span {
	if p.i == 0 {
		return p.tokens[0].Span
	}
	return p.tokens[p.i-1].Span
}

func (p *parser) expect(t TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, p.unexpected(tok, what)
	}
	return p.next(), nil
}

func (p *parser) unexpected(tok Token, want string) error {
	if tok.Type == EOF {
		return syntaxErrorf(tok.Span, "unexpected end of input, expected %s", want)
	}
	return syntaxErrorf(tok.Span, "unexpected %s %q, expected %s", tok.Type, tok.Text, want)
}

func (p *parser) atStageEnd() bool {
	t := p.peek().Type
	return t == ARROW || t == EOF
}

func (p *parser) chain() (*Chain, error) {
	first := p.peek()
	if first.Type == EOF {
		return nil, syntaxErrorf(first.Span, "empty command")
	}
	c := &Chain{}
	for {
		if p.atStageEnd() {
			return nil, syntaxErrorf(p.peek().Span, "missing stage")
		}
		st, err := p.stage()
		if err != nil {
			return nil, err
		}
		c.Stages = append(c.Stages, st)
		if p.peek().Type == EOF {
			break
		}
		if _, err := p.expect(ARROW, "'->'"); err != nil {
			return nil, err
		}
	}
	c.span = first.Span.to(p.last())
	return c, nil
}

func (p *parser) stage() (Node, error) {
	t := p.peek()
	switch {
	case (t.Type == SYMBOL && t.Text == "DEFINE" || t.Type == WORD && t.Text == "define") && p.peekAt(1).Type == CALL:
		return p.define()
	case t.Type == WORD && (t.Text == "lock" || t.Text == "unlock") && p.peekAt(1).Type == VARIABLE:
		return p.lock()
	case t.Type == COLON || t.Type == WORD && t.Text == "info":
		return p.info()
	case t.Type == CALL:
		p.next()
		n := &CallNode{Name: t.Text[1:]}
		n.span = t.Span
		return n, p.endOfStage()
	}

	group, err := p.operands()
	if err != nil {
		return nil, err
	}
	if p.atStageEnd() {
		if len(group.Operands) == 1 && !group.Operands[0].HasWeight {
			if v, ok := group.Operands[0].Ref.(*VariableNode); ok {
				return v, nil
			}
		}
		n := &BasketNode{Operands: group}
		n.span = group.span
		return n, nil
	}

	var left Node
	if group != nil {
		left = group
	}
	for !p.atStageEnd() {
		if left, err = p.command(left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) endOfStage() error {
	if !p.atStageEnd() {
		return p.unexpected(p.peek(), "'->' or end of input")
	}
	return nil
}

// operands parses a possibly empty list of operands. It returns nil if the
// list is empty.
func (p *parser) operands() (*OperandGroup, error) {
	var g *OperandGroup
	for {
		t := p.peek()
		if t.Type != NUMBER && t.Type != SYMBOL && t.Type != VARIABLE {
			return g, nil
		}
		op, err := p.operand()
		if err != nil {
			return nil, err
		}
		if g == nil {
			g = &OperandGroup{}
			g.span = op.span
		}
		g.Operands = append(g.Operands, op)
		g.span = g.span.to(op.span)
	}
}

func (p *parser) operand() (*OperandNode, error) {
	op := &OperandNode{}
	start := p.peek().Span
	if t := p.peek(); t.Type == NUMBER {
		p.next()
		w, err := fins.ParseWeight(t.Text)
		if err != nil {
			return nil, syntaxErrorf(t.Span, "invalid weight %q", t.Text)
		}
		op.Weight, op.HasWeight = w, true
		if nt := p.peek().Type; nt != SYMBOL && nt != VARIABLE {
			return nil, p.unexpected(p.peek(), "a symbol or a variable after the weight")
		}
	}
	ref, err := p.reference()
	if err != nil {
		return nil, err
	}
	op.Ref = ref
	op.span = start.to(ref.Span())
	return op, nil
}

// reference parses a symbol or a variable.
func (p *parser) reference() (Node, error) {
	t := p.next()
	switch t.Type {
	case SYMBOL:
		sym, err := fins.ParseSymbol(t.Text)
		if err != nil {
			return nil, syntaxErrorf(t.Span, "%v", err)
		}
		n := &SymbolNode{Symbol: sym}
		n.span = t.Span
		return n, nil
	case VARIABLE:
		if err := storage.ValidatePath(t.Text); err != nil {
			return nil, syntaxErrorf(t.Span, "%v", err)
		}
		n := &VariableNode{Path: t.Text}
		n.span = t.Span
		return n, nil
	default:
		return nil, p.unexpected(t, "a symbol or a variable")
	}
}

// command parses one command applied to left, which may be nil.
func (p *parser) command(left Node) (Node, error) {
	t := p.next()
	start := t.Span
	if left != nil {
		start = left.Span()
	}

	switch t.Type {
	case PLUS, MINUS, AMP:
		right, err := p.operands()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, p.unexpected(p.peek(), "operands after "+t.Type.String())
		}
		op := setOperation{Left: left, Right: right}
		op.span = start.to(right.span)
		switch t.Type {
		case PLUS:
			return &UnionNode{op}, nil
		case MINUS:
			return &DifferenceNode{op}, nil
		default:
			return &IntersectionNode{op}, nil
		}

	case DOTDOT:
		st, err := p.expect(SYMBOL, "a symbol after '..'")
		if err != nil {
			return nil, err
		}
		sym, err := fins.ParseSymbol(st.Text)
		if err != nil {
			return nil, syntaxErrorf(st.Span, "%v", err)
		}
		n := &SpreadNode{Left: left, Symbol: sym}
		n.span = start.to(st.Span)
		return n, nil

	case PIPE:
		alias, err := p.expect(WORD, "a column alias after '|'")
		if err != nil {
			return nil, err
		}
		typ, err := p.expect(WORD, "a column type")
		if err != nil {
			return nil, err
		}
		spec, err := p.columnSuffix(fins.ColumnSpec{Type: typ.Text, Alias: alias.Text})
		if err != nil {
			return nil, err
		}
		n := &ColumnNode{Left: left, Spec: spec}
		n.span = start.to(p.last())
		return n, nil

	case DOT:
		name, err := p.expect(WORD, "a column name after '.'")
		if err != nil {
			return nil, err
		}
		spec := fins.ColumnSpec{Type: name.Text}
		if eq := p.peek(); eq.Type == CMP && eq.Text == "=" {
			p.next()
			if _, err := p.expect(DOT, "'.' before the column type"); err != nil {
				return nil, err
			}
			typ, err := p.expect(WORD, "a column type")
			if err != nil {
				return nil, err
			}
			spec = fins.ColumnSpec{Type: typ.Text, Alias: name.Text}
		}
		if spec.Params, err = p.arguments(); err != nil {
			return nil, err
		}
		n := &ColumnNode{Left: left, Spec: spec}
		n.span = start.to(p.last())
		return n, nil

	case WORD:
		if t.Text == "sort" {
			return p.sort(left, start)
		}
		if p.peek().Type == CMP {
			return p.filter(left, start, t.Text)
		}
		spec, err := p.columnSuffix(fins.ColumnSpec{Type: t.Text})
		if err != nil {
			return nil, err
		}
		n := &ColumnNode{Left: left, Spec: spec}
		n.span = start.to(p.last())
		return n, nil

	default:
		return nil, p.unexpected(t, "a command")
	}
}

func (p *parser) sort(left Node, start Span) (Node, error) {
	attr, err := p.expect(WORD, "an attribute to sort by")
	if err != nil {
		return nil, err
	}
	n := &SortNode{Left: left, Attribute: attr.Text, Ascending: true}
	if o := p.peek(); o.Type == WORD && (o.Text == "asc" || o.Text == "desc") {
		p.next()
		n.Ascending = o.Text == "asc"
	}
	n.span = start.to(p.last())
	return n, nil
}

func (p *parser) filter(left Node, start Span, attr string) (Node, error) {
	op := p.next().Text
	if op == "==" {
		op = "="
	}
	n := &FilterNode{Left: left, Attribute: attr, Op: op}

	t := p.next()
	switch t.Type {
	case MINUS, NUMBER:
		sign := 1.0
		if t.Type == MINUS {
			sign = -1
			if t = p.next(); t.Type != NUMBER {
				return nil, p.unexpected(t, "a number after '-'")
			}
		}
		f, err := fins.ParseNumber(t.Text)
		if err != nil {
			return nil, syntaxErrorf(t.Span, "invalid number %q", t.Text)
		}
		n.Value = fins.Number(sign * f)
	case STRING, WORD, SYMBOL:
		n.Value = fins.Text(t.Text)
	case VARIABLE:
		if err := storage.ValidatePath(t.Text); err != nil {
			return nil, syntaxErrorf(t.Span, "%v", err)
		}
		n.Ref = t.Text
	default:
		return nil, p.unexpected(t, "a value after "+op)
	}
	n.span = start.to(p.last())
	return n, nil
}

// columnSuffix parses the optional "[Y1:Y2]" range and period of a column.
func (p *parser) columnSuffix(spec fins.ColumnSpec) (fins.ColumnSpec, error) {
	if p.peek().Type == LBRACKET {
		p.next()
		var err error
		if spec.StartYear, err = p.year(); err != nil {
			return spec, err
		}
		if _, err := p.expect(COLON, "':' in the year range"); err != nil {
			return spec, err
		}
		if spec.EndYear, err = p.year(); err != nil {
			return spec, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return spec, err
		}
	}
	if t := p.peek(); t.Type == NUMBER {
		p.next()
		span, err := date.ParseSpan(t.Text)
		if err != nil {
			return spec, syntaxErrorf(t.Span, "invalid period %q, want a period like 10y, 6m or 30d", t.Text)
		}
		spec.Period = span.String()
	}
	return spec, nil
}

// year parses an optional year.
func (p *parser) year() (int, error) {
	t := p.peek()
	if t.Type != NUMBER {
		return 0, nil
	}
	p.next()
	y, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, syntaxErrorf(t.Span, "invalid year %q", t.Text)
	}
	return y, nil
}

// arguments parses "(k=v, ...)". Positional arguments are named arg0, arg1...
func (p *parser) arguments() (map[string]string, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	params := make(map[string]string)
	if p.peek().Type == RPAREN {
		p.next()
		return params, nil
	}
	for i := 0; ; i++ {
		key := "arg" + strconv.Itoa(i)
		if k, eq := p.peek(), p.peekAt(1); k.Type == WORD && eq.Type == CMP && eq.Text == "=" {
			key = k.Text
			p.next()
			p.next()
		}
		v := p.next()
		switch v.Type {
		case NUMBER, WORD, SYMBOL, STRING, VARIABLE:
			params[key] = v.Text
		default:
			return nil, p.unexpected(v, "an argument value")
		}
		sep := p.next()
		switch sep.Type {
		case RPAREN:
			return params, nil
		case COMMA:
		default:
			return nil, p.unexpected(sep, "',' or ')'")
		}
	}
}

func (p *parser) info() (Node, error) {
	t := p.next()
	n := &InfoNode{}
	if nt := p.peek().Type; nt == SYMBOL || nt == VARIABLE {
		target, err := p.reference()
		if err != nil {
			return nil, err
		}
		n.Target = target
	}
	n.span = t.Span.to(p.last())
	return n, p.endOfStage()
}

func (p *parser) lock() (Node, error) {
	t := p.next()
	v := p.next()
	if err := storage.ValidatePath(v.Text); err != nil {
		return nil, syntaxErrorf(v.Span, "%v", err)
	}
	var n Node
	if t.Text == "lock" {
		l := &LockNode{Path: v.Text}
		l.span = t.Span.to(v.Span)
		n = l
	} else {
		u := &UnlockNode{Path: v.Text}
		u.span = t.Span.to(v.Span)
		n = u
	}
	return n, p.endOfStage()
}

func (p *parser) define() (Node, error) {
	t := p.next()
	name := p.next()
	if eq := p.next(); eq.Type != CMP || eq.Text != "=" {
		return nil, p.unexpected(eq, "'='")
	}
	body, err := p.expect(STRING, "the quoted command")
	if err != nil {
		return nil, err
	}
	n := &DefineNode{Name: name.Text[1:], Body: body.Text}
	n.span = t.Span.to(body.Span)
	return n, p.endOfStage()
}
