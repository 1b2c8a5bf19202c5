package dsl

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType is the kind of a lexical token.
type TokenType int

const (
	EOF TokenType = iota

	WORD     // attribute, column type or keyword: pe, sort, asc, Technology
	SYMBOL   // ticker: AAPL, ^GSPC, BRK.B, SAP:XETRA
	VARIABLE // storage path: $a, /lists/tech
	CALL     // function reference: !name
	NUMBER   // 3, 1.5, 3x, 10B, 10y
	STRING   // "quoted" or 'quoted'

	ARROW    // ->
	PLUS     // +
	MINUS    // -
	AMP      // &
	PIPE     // |
	DOT      // .
	DOTDOT   // ..
	COLON    // :
	COMMA    // ,
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )
	CMP      // > < >= <= = == !=
)

var tokenNames = [...]string{
	EOF:      "end of input",
	WORD:     "word",
	SYMBOL:   "symbol",
	VARIABLE: "variable",
	CALL:     "function",
	NUMBER:   "number",
	STRING:   "string",
	ARROW:    "'->'",
	PLUS:     "'+'",
	MINUS:    "'-'",
	AMP:      "'&'",
	PIPE:     "'|'",
	DOT:      "'.'",
	DOTDOT:   "'..'",
	COLON:    "':'",
	COMMA:    "','",
	LBRACKET: "'['",
	RBRACKET: "']'",
	LPAREN:   "'('",
	RPAREN:   "')'",
	CMP:      "comparator",
}

func (t TokenType) String() string { return tokenNames[t] }

// Span locates a piece of the command text.
type Span struct {
	Start int `json:"start"` // byte offset
	End   int `json:"end"`   // byte offset, exclusive
	Line  int `json:"line"`  // 1-based
	Col   int `json:"col"`   // 1-based
}

// to returns the span from s to the end of o.
func (s Span) to(o Span) Span {
	s.End = o.End
	return s
}

// Token is a lexical token. Text is the raw text, except for strings where
// it is the unquoted value.
type Token struct {
	Type TokenType
	Text string
	Span Span
}

// lexer scans a command into tokens.
type lexer struct {
	src   string
	start int // start of the current token
	cur   int // current offset
	line  int
	col   int // column of cur, 1-based
	sLine int // line of start
	sCol  int // column of start
}

// Lex returns the tokens of src, terminated by an EOF token.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peek(i int) byte {
	if l.cur+i >= len(l.src) {
		return 0
	}
	return l.src[l.cur+i]
}

func (l *lexer) advance() byte {
	c := l.src[l.cur]
	l.cur++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) span() Span {
	return Span{Start: l.start, End: l.cur, Line: l.sLine, Col: l.sCol}
}

func (l *lexer) emit(t TokenType) (Token, error) {
	return Token{Type: t, Text: l.src[l.start:l.cur], Span: l.span()}, nil
}

func (l *lexer) errorf(format string, args ...any) (Token, error) {
	return Token{}, &SyntaxError{Span: l.span(), Msg: fmt.Sprintf(format, args...)}
}

// skip skips white spaces and comments.
func (l *lexer) skip() {
	for l.cur < len(l.src) {
		switch c := l.peek(0); {
		case c == '#':
			for l.cur < len(l.src) && l.peek(0) != '\n' {
				l.advance()
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance()
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// isIdent reports whether c can continue an identifier.
func isIdent(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

// isPathChar reports whether c can appear in a variable path.
func isPathChar(c byte) bool { return isIdent(c) || c == '.' || c == '-' || c == '!' }

func (l *lexer) next() (Token, error) {
	l.skip()
	l.start, l.sLine, l.sCol = l.cur, l.line, l.col
	if l.cur >= len(l.src) {
		return l.emit(EOF)
	}

	c := l.advance()
	switch {
	case c == '-' && l.peek(0) == '>':
		l.advance()
		return l.emit(ARROW)
	case c == '+':
		return l.emit(PLUS)
	case c == '-':
		return l.emit(MINUS)
	case c == '&':
		return l.emit(AMP)
	case c == '|':
		return l.emit(PIPE)
	case c == ':':
		return l.emit(COLON)
	case c == ',':
		return l.emit(COMMA)
	case c == '[':
		return l.emit(LBRACKET)
	case c == ']':
		return l.emit(RBRACKET)
	case c == '(':
		return l.emit(LPAREN)
	case c == ')':
		return l.emit(RPAREN)
	case c == '.' && l.peek(0) == '.':
		l.advance()
		return l.emit(DOTDOT)
	case c == '.' && isDigit(l.peek(0)):
		return l.number()
	case c == '.':
		return l.emit(DOT)
	case c == '>' || c == '<':
		if l.peek(0) == '=' {
			l.advance()
		}
		return l.emit(CMP)
	case c == '=':
		if l.peek(0) == '=' {
			l.advance()
		}
		return l.emit(CMP)
	case c == '!' && l.peek(0) == '=':
		l.advance()
		return l.emit(CMP)
	case c == '!':
		if !isLetter(l.peek(0)) && l.peek(0) != '_' {
			return l.errorf("expected a function name after '!'")
		}
		for isIdent(l.peek(0)) {
			l.advance()
		}
		return l.emit(CALL)
	case c == '$':
		for isPathChar(l.peek(0)) {
			l.advance()
		}
		if l.cur-l.start == 1 {
			return l.errorf("expected a variable name after '$'")
		}
		return l.emit(VARIABLE)
	case c == '/':
		for isPathChar(l.peek(0)) || l.peek(0) == '/' {
			l.advance()
		}
		if l.cur-l.start == 1 {
			return l.errorf("expected a path after '/'")
		}
		return l.emit(VARIABLE)
	case c == '"' || c == '\'':
		return l.string(c)
	case isDigit(c):
		return l.number()
	case isLetter(c) || c == '_' || c == '^':
		return l.identifier()
	default:
		return l.errorf("unexpected character %q", rune(c))
	}
}

// number scans digits, an optional fraction and an optional letter suffix
// (3x, 10B, 10y).
func (l *lexer) number() (Token, error) {
	for isDigit(l.peek(0)) {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
	}
	for isLetter(l.peek(0)) {
		l.advance()
	}
	return l.emit(NUMBER)
}

// identifier scans a word or a ticker. A ticker has no lower case letter and
// may carry an exchange after a colon.
func (l *lexer) identifier() (Token, error) {
	for {
		c := l.peek(0)
		switch {
		case isIdent(c):
			l.advance()
		case c == '.' && isIdent(l.peek(1)):
			l.advance()
		case c == '-' && isIdent(l.peek(1)):
			l.advance()
		default:
			text := l.src[l.start:l.cur]
			if strings.IndexFunc(text, unicode.IsLower) >= 0 {
				return l.emit(WORD)
			}
			if c == ':' && l.peek(1) >= 'A' && l.peek(1) <= 'Z' {
				l.advance()
				for isIdent(l.peek(0)) {
					l.advance()
				}
			}
			if text == "^" {
				return l.errorf("expected a ticker after '^'")
			}
			return l.emit(SYMBOL)
		}
	}
}

// string scans a quoted string. Backslash escapes the next character.
func (l *lexer) string(quote byte) (Token, error) {
	var b strings.Builder
	for {
		if l.cur >= len(l.src) {
			return l.errorf("unterminated string")
		}
		c := l.advance()
		switch c {
		case quote:
			return Token{Type: STRING, Text: b.String(), Span: l.span()}, nil
		case '\\':
			if l.cur >= len(l.src) {
				return l.errorf("unterminated string")
			}
			b.WriteByte(l.advance())
		default:
			b.WriteByte(c)
		}
	}
}
