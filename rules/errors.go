package rules

import "fmt"

// ParseError is returned when a rule expression is malformed or cannot be
// evaluated. It covers syntax errors, type errors during evaluation, unknown
// functions, and undefined variable references in strict mode.
type ParseError struct {
	Line    int
	Column  int
	Token   string // Offending token text, if any
	Message string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%d:%d: %s (at %q)", e.Line, e.Column, e.Message, e.Token)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// NewParseError creates a parse error at the given token.
func NewParseError(tok Token, source []byte, format string, args ...interface{}) *ParseError {
	text := ""
	if tok.End > tok.Start && tok.End <= len(source) {
		text = tok.Text(source)
	}
	return &ParseError{
		Line:    tok.Line,
		Column:  tok.Column,
		Token:   text,
		Message: fmt.Sprintf(format, args...),
	}
}

// newEvalError creates a parse error at a node position discovered during
// evaluation.
func newEvalError(pos position, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Line:    pos.line,
		Column:  pos.column,
		Message: fmt.Sprintf(format, args...),
	}
}
