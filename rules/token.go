package rules

// TokenType represents the type of token scanned from a rule expression.
type TokenType uint8

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	NUMBER // 123.45
	STRING // "quoted" or 'quoted'
	IDENT  // variable or function name

	// Keywords
	AND   // and
	OR    // or
	NOT   // not
	TRUE  // true
	FALSE // false
	NULL  // null

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	LT       // <
	LTE      // <=
	GT       // >
	GTE      // >=
	EQ       // ==
	NEQ      // !=
	BANG     // !
	QUESTION // ?
	COLON    // :
	COMMA    // ,
	DOLLAR   // $

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	NUMBER: "NUMBER",
	STRING: "STRING",
	IDENT:  "IDENT",

	AND:   "and",
	OR:    "or",
	NOT:   "not",
	TRUE:  "true",
	FALSE: "false",
	NULL:  "null",

	PLUS:     "+",
	MINUS:    "-",
	ASTERISK: "*",
	SLASH:    "/",
	LT:       "<",
	LTE:      "<=",
	GT:       ">",
	GTE:      ">=",
	EQ:       "==",
	NEQ:      "!=",
	BANG:     "!",
	QUESTION: "?",
	COLON:    ":",
	COMMA:    ",",
	DOLLAR:   "$",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACKET: "[",
	RBRACKET: "]",
	LBRACE:   "{",
	RBRACE:   "}",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a single token in a rule expression.
// Tokens store byte offsets into the source, not string values.
type Token struct {
	Type   TokenType
	Start  int // Byte offset of token start
	End    int // Byte offset past token end
	Line   int // 1-indexed line
	Column int // 1-indexed column
}

// Text returns the source text covered by the token.
func (t Token) Text(source []byte) string {
	return string(source[t.Start:t.End])
}
