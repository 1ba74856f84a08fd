// Package rules implements the typed expression language used by account
// resolution rules and value transforms. Expressions come from tenant-editable
// configuration, so the language is deliberately small: literals, variables,
// arithmetic, comparisons, boolean connectives, a ternary, list and map
// literals, and a fixed library of pure functions. There is no way to reach
// host code from an expression.
//
// Example:
//
//	v, err := rules.Evaluate(`currency == 'EUR' ? '1910' : '1920'`, &rules.Env{
//		Vars: map[string]rules.Value{"currency": rules.String("EUR")},
//	})
package rules

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parser builds an AST from a token stream.
type Parser struct {
	source []byte
	tokens []Token
	index  int
}

// Parse parses a rule expression into an AST that can be evaluated with
// different environments.
func Parse(expr string) (Node, error) {
	source := []byte(expr)
	tokens := NewLexer(source).ScanAll()

	p := &Parser{source: source, tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type != EOF {
		return nil, NewParseError(tok, source, "unexpected trailing input")
	}
	return node, nil
}

// Evaluate parses and evaluates an expression in one call. Callers that
// evaluate the same expression repeatedly should Parse once and reuse the
// node instead.
func Evaluate(expr string, env *Env) (Value, error) {
	node, err := Parse(expr)
	if err != nil {
		return Value{}, err
	}
	return node.Eval(env)
}

// parseExpression parses a full expression including the ternary operator,
// which has the lowest precedence and associates to the right.
func (p *Parser) parseExpression() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().Type != QUESTION {
		return cond, nil
	}
	tok := p.advance() // consume '?'

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(COLON); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ternaryNode{position: tokenPos(tok), cond: cond, then: then, els: els}, nil
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == OR {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{position: tokenPos(tok), op: OR, left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == AND {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{position: tokenPos(tok), op: AND, left: left, right: right}
	}
	return left, nil
}

// parseNot handles the keyword form, which binds looser than comparisons so
// that `not a == b` negates the comparison.
func (p *Parser) parseNot() (Node, error) {
	if p.peek().Type == NOT {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{position: tokenPos(tok), op: NOT, operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	op := p.peek().Type
	if op != LT && op != LTE && op != GT && op != GTE && op != EQ && op != NEQ {
		return left, nil
	}
	tok := p.advance()

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &binaryNode{position: tokenPos(tok), op: op, left: left, right: right}, nil
}

func (p *Parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek().Type
		if op != PLUS && op != MINUS {
			break
		}
		tok := p.advance()

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{position: tokenPos(tok), op: op, left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek().Type
		if op != ASTERISK && op != SLASH {
			break
		}
		tok := p.advance()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{position: tokenPos(tok), op: op, left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	switch p.peek().Type {
	case MINUS:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{position: tokenPos(tok), op: MINUS, operand: operand}, nil

	case BANG:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{position: tokenPos(tok), op: BANG, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Type {
	case NUMBER:
		p.advance()
		d, err := decimal.NewFromString(tok.Text(p.source))
		if err != nil {
			return nil, NewParseError(tok, p.source, "invalid number")
		}
		return number(tokenPos(tok), d), nil

	case STRING:
		p.advance()
		return &literalNode{position: tokenPos(tok), value: String(unquote(tok.Text(p.source)))}, nil

	case TRUE:
		p.advance()
		return &literalNode{position: tokenPos(tok), value: Bool(true)}, nil

	case FALSE:
		p.advance()
		return &literalNode{position: tokenPos(tok), value: Bool(false)}, nil

	case NULL:
		p.advance()
		return &literalNode{position: tokenPos(tok), value: Null()}, nil

	case IDENT:
		p.advance()
		name := tok.Text(p.source)
		if p.peek().Type == LPAREN {
			return p.parseCall(tok, name)
		}
		return &varNode{position: tokenPos(tok), name: name}, nil

	// Variable with a non-identifier name: $("name with spaces")
	case DOLLAR:
		p.advance()
		if err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		nameTok := p.peek()
		if nameTok.Type != STRING {
			return nil, NewParseError(nameTok, p.source, "expected variable name string after $(")
		}
		p.advance()
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &varNode{position: tokenPos(tok), name: unquote(nameTok.Text(p.source))}, nil

	case LPAREN:
		p.advance()
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return node, nil

	case LBRACKET:
		return p.parseList()

	case LBRACE:
		return p.parseMap()

	case EOF:
		return nil, NewParseError(tok, p.source, "unexpected end of expression")

	default:
		return nil, NewParseError(tok, p.source, "unexpected token")
	}
}

func (p *Parser) parseCall(nameTok Token, name string) (Node, error) {
	p.advance() // consume '('

	var args []Node
	if p.peek().Type != RPAREN {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	// Unknown functions are rejected at parse time so that malformed
	// configuration surfaces before any event is processed.
	if _, ok := functions[name]; !ok {
		return nil, NewParseError(nameTok, p.source, "unknown function %q", name)
	}
	fn := functions[name]
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, NewParseError(nameTok, p.source, "wrong number of arguments for %q", name)
	}

	return &callNode{position: tokenPos(nameTok), name: name, args: args}, nil
}

func (p *Parser) parseList() (Node, error) {
	tok := p.advance() // consume '['

	var elems []Node
	if p.peek().Type != RBRACKET {
		for {
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)

			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(RBRACKET); err != nil {
		return nil, err
	}

	return &listNode{position: tokenPos(tok), elems: elems}, nil
}

func (p *Parser) parseMap() (Node, error) {
	tok := p.advance() // consume '{'

	var keys []string
	var vals []Node
	if p.peek().Type != RBRACE {
		for {
			keyTok := p.peek()
			var key string
			switch keyTok.Type {
			case IDENT:
				key = keyTok.Text(p.source)
			case STRING:
				key = unquote(keyTok.Text(p.source))
			default:
				return nil, NewParseError(keyTok, p.source, "expected map key")
			}
			p.advance()

			if err := p.expect(COLON); err != nil {
				return nil, err
			}

			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			vals = append(vals, val)

			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(RBRACE); err != nil {
		return nil, err
	}

	return &mapNode{position: tokenPos(tok), keys: keys, vals: vals}, nil
}

// Helper methods

func (p *Parser) peek() Token {
	if p.index >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.index]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.index < len(p.tokens) {
		p.index++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) error {
	tok := p.peek()
	if tok.Type != tt {
		return NewParseError(tok, p.source, "expected %s", tt)
	}
	p.advance()
	return nil
}

func tokenPos(tok Token) position {
	return position{line: tok.Line, column: tok.Column}
}

// unquote strips the surrounding quotes from a string token and decodes
// backslash escapes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteByte(s[i])
			}
		} else {
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}
