package dsl

import (
	"errors"
	"fmt"
)

// ErrSyntax matches every *SyntaxError with errors.Is.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports malformed command text, or a stage bound to the wrong
// inputs.
type SyntaxError struct {
	Span Span
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Span.Line == 0 {
		return fmt.Sprintf("syntax error: %s", e.Msg)
	}
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Span.Line, e.Span.Col, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) true.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func syntaxErrorf(span Span, format string, args ...any) error {
	return &SyntaxError{Span: span, Msg: fmt.Sprintf(format, args...)}
}
