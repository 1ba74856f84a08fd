package rules

import "bytes"

// Lexer tokenizes a rule expression in a single pass with no backtracking.
type Lexer struct {
	source []byte
	pos    int
	line   int
	column int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, len(source)/4+8),
	}
}

// ScanAll lexes the entire expression and returns all tokens.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		l.skipWhitespace()

		if l.pos >= len(l.source) {
			break
		}

		tok := l.scanToken()
		l.tokens = append(l.tokens, tok)
	}

	l.tokens = append(l.tokens, Token{
		Type:   EOF,
		Start:  l.pos,
		End:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens
}

// scanToken scans the next token from the current position.
func (l *Lexer) scanToken() Token {
	start := l.pos
	startLine := l.line
	startCol := l.column

	ch := l.advance()

	switch {
	case ch >= '0' && ch <= '9':
		return l.scanNumber(start, startLine, startCol)

	case ch == '"' || ch == '\'':
		return l.scanString(ch, start, startLine, startCol)

	case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		return l.scanIdent(start, startLine, startCol)

	case ch == '+':
		return Token{PLUS, start, l.pos, startLine, startCol}
	case ch == '-':
		return Token{MINUS, start, l.pos, startLine, startCol}
	case ch == '*':
		return Token{ASTERISK, start, l.pos, startLine, startCol}
	case ch == '/':
		return Token{SLASH, start, l.pos, startLine, startCol}
	case ch == '?':
		return Token{QUESTION, start, l.pos, startLine, startCol}
	case ch == ':':
		return Token{COLON, start, l.pos, startLine, startCol}
	case ch == ',':
		return Token{COMMA, start, l.pos, startLine, startCol}
	case ch == '$':
		return Token{DOLLAR, start, l.pos, startLine, startCol}
	case ch == '(':
		return Token{LPAREN, start, l.pos, startLine, startCol}
	case ch == ')':
		return Token{RPAREN, start, l.pos, startLine, startCol}
	case ch == '[':
		return Token{LBRACKET, start, l.pos, startLine, startCol}
	case ch == ']':
		return Token{RBRACKET, start, l.pos, startLine, startCol}
	case ch == '{':
		return Token{LBRACE, start, l.pos, startLine, startCol}
	case ch == '}':
		return Token{RBRACE, start, l.pos, startLine, startCol}

	// < or <=
	case ch == '<':
		if l.peek() == '=' {
			l.advance()
			return Token{LTE, start, l.pos, startLine, startCol}
		}
		return Token{LT, start, l.pos, startLine, startCol}

	// > or >=
	case ch == '>':
		if l.peek() == '=' {
			l.advance()
			return Token{GTE, start, l.pos, startLine, startCol}
		}
		return Token{GT, start, l.pos, startLine, startCol}

	// == (single = is not an operator)
	case ch == '=':
		if l.peek() == '=' {
			l.advance()
			return Token{EQ, start, l.pos, startLine, startCol}
		}
		return Token{ILLEGAL, start, l.pos, startLine, startCol}

	// ! or !=
	case ch == '!':
		if l.peek() == '=' {
			l.advance()
			return Token{NEQ, start, l.pos, startLine, startCol}
		}
		return Token{BANG, start, l.pos, startLine, startCol}

	// & must pair up as &&
	case ch == '&':
		if l.peek() == '&' {
			l.advance()
			return Token{AND, start, l.pos, startLine, startCol}
		}
		return Token{ILLEGAL, start, l.pos, startLine, startCol}

	// | must pair up as ||
	case ch == '|':
		if l.peek() == '|' {
			l.advance()
			return Token{OR, start, l.pos, startLine, startCol}
		}
		return Token{ILLEGAL, start, l.pos, startLine, startCol}

	default:
		return Token{ILLEGAL, start, l.pos, startLine, startCol}
	}
}

// scanNumber scans a number: [0-9]+(\.[0-9]+)?
func (l *Lexer) scanNumber(start, line, col int) Token {
	for l.pos < len(l.source) && l.source[l.pos] >= '0' && l.source[l.pos] <= '9' {
		l.advance()
	}

	// Optional decimal part
	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		if l.pos+1 < len(l.source) && l.source[l.pos+1] >= '0' && l.source[l.pos+1] <= '9' {
			l.advance() // consume '.'
			for l.pos < len(l.source) && l.source[l.pos] >= '0' && l.source[l.pos] <= '9' {
				l.advance()
			}
		}
	}

	return Token{NUMBER, start, l.pos, line, col}
}

// scanString scans a quoted string using the given quote character.
// The token covers the quotes; escape sequences are decoded by the parser.
func (l *Lexer) scanString(quote byte, start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == quote {
			l.advance() // consume closing quote
			return Token{STRING, start, l.pos, line, col}
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance() // skip backslash
			l.advance() // skip escaped char
		} else {
			l.advance()
		}
	}

	// Unterminated string
	return Token{ILLEGAL, start, l.pos, line, col}
}

// scanIdent scans an identifier or keyword.
func (l *Lexer) scanIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch != '_' && (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			break
		}
		l.advance()
	}

	word := l.source[start:l.pos]
	return Token{l.keywordType(word), start, l.pos, line, col}
}

// keywordType returns the token type for a keyword, or IDENT if not a keyword.
func (l *Lexer) keywordType(word []byte) TokenType {
	switch {
	case bytes.Equal(word, []byte("and")):
		return AND
	case bytes.Equal(word, []byte("or")):
		return OR
	case bytes.Equal(word, []byte("not")):
		return NOT
	case bytes.Equal(word, []byte("true")):
		return TRUE
	case bytes.Equal(word, []byte("false")):
		return FALSE
	case bytes.Equal(word, []byte("null")):
		return NULL
	default:
		return IDENT
	}
}

// skipWhitespace skips whitespace and updates line/column tracking.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		if ch == '\n' {
			l.line++
			l.column = 1
			l.pos++
		} else {
			l.column++
			l.pos++
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}
