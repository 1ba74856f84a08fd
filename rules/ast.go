package rules

import "github.com/shopspring/decimal"

// Env carries the variable bindings for one evaluation. When Strict is set,
// referencing an undefined variable is an error; otherwise it evaluates to
// the undefined value.
type Env struct {
	Vars   map[string]Value
	Strict bool
}

// Lookup returns the binding for a variable name.
func (e *Env) Lookup(name string) (Value, bool) {
	if e == nil || e.Vars == nil {
		return Value{}, false
	}
	v, ok := e.Vars[name]
	return v, ok
}

// position locates a node in the source expression for error reporting.
type position struct {
	line   int
	column int
}

// Node is a parsed rule expression. Nodes are immutable and safe to cache
// and evaluate repeatedly with different environments.
type Node interface {
	Eval(env *Env) (Value, error)
	pos() position
}

type literalNode struct {
	position
	value Value
}

type varNode struct {
	position
	name string
}

type unaryNode struct {
	position
	op      TokenType
	operand Node
}

type binaryNode struct {
	position
	op    TokenType
	left  Node
	right Node
}

type ternaryNode struct {
	position
	cond Node
	then Node
	els  Node
}

type listNode struct {
	position
	elems []Node
}

type mapNode struct {
	position
	keys []string
	vals []Node
}

type callNode struct {
	position
	name string
	args []Node
}

func (p position) pos() position { return p }

func (n *literalNode) Eval(env *Env) (Value, error) {
	return n.value, nil
}

func (n *varNode) Eval(env *Env) (Value, error) {
	if v, ok := env.Lookup(n.name); ok {
		return v, nil
	}
	if env != nil && env.Strict {
		return Value{}, newEvalError(n.position, "undefined variable %q", n.name)
	}
	return Undefined(), nil
}

func (n *unaryNode) Eval(env *Env) (Value, error) {
	operand, err := n.operand.Eval(env)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case MINUS:
		if operand.IsUndefined() {
			return Undefined(), nil
		}
		if operand.Kind() != KindNumber {
			return Value{}, newEvalError(n.position, "cannot negate %s", operand.Kind())
		}
		return Number(operand.AsNumber().Neg()), nil

	case NOT, BANG:
		return Bool(!operand.Truthy()), nil

	default:
		return Value{}, newEvalError(n.position, "unknown unary operator %s", n.op)
	}
}

func (n *binaryNode) Eval(env *Env) (Value, error) {
	// Boolean connectives short-circuit
	switch n.op {
	case AND:
		left, err := n.left.Eval(env)
		if err != nil {
			return Value{}, err
		}
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := n.right.Eval(env)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil

	case OR:
		left, err := n.left.Eval(env)
		if err != nil {
			return Value{}, err
		}
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := n.right.Eval(env)
		if err != nil {
			return Value{}, err
		}
		return Bool(right.Truthy()), nil
	}

	left, err := n.left.Eval(env)
	if err != nil {
		return Value{}, err
	}
	right, err := n.right.Eval(env)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case EQ:
		return Bool(left.Equal(right)), nil
	case NEQ:
		return Bool(!left.Equal(right)), nil
	case PLUS, MINUS, ASTERISK, SLASH:
		return n.arithmetic(left, right)
	case LT, LTE, GT, GTE:
		return n.compare(left, right)
	default:
		return Value{}, newEvalError(n.position, "unknown operator %s", n.op)
	}
}

// arithmetic applies + - * / to two operands. Undefined operands propagate
// so that non-strict evaluations degrade without raising.
func (n *binaryNode) arithmetic(left, right Value) (Value, error) {
	if left.IsUndefined() || right.IsUndefined() {
		return Undefined(), nil
	}

	// String and list concatenation via +
	if n.op == PLUS {
		if left.Kind() == KindString && right.Kind() == KindString {
			return String(left.AsString() + right.AsString()), nil
		}
		if left.Kind() == KindList && right.Kind() == KindList {
			elems := make([]Value, 0, len(left.AsList())+len(right.AsList()))
			elems = append(elems, left.AsList()...)
			elems = append(elems, right.AsList()...)
			return List(elems...), nil
		}
	}

	if left.Kind() != KindNumber || right.Kind() != KindNumber {
		return Value{}, newEvalError(n.position, "cannot apply %s to %s and %s", n.op, left.Kind(), right.Kind())
	}

	a, b := left.AsNumber(), right.AsNumber()
	switch n.op {
	case PLUS:
		return Number(a.Add(b)), nil
	case MINUS:
		return Number(a.Sub(b)), nil
	case ASTERISK:
		return Number(a.Mul(b)), nil
	case SLASH:
		if b.IsZero() {
			return Value{}, newEvalError(n.position, "division by zero")
		}
		return Number(a.Div(b)), nil
	}
	return Value{}, newEvalError(n.position, "unknown operator %s", n.op)
}

// compare applies an ordering operator. Numbers compare numerically, strings
// lexicographically. Undefined operands compare as false.
func (n *binaryNode) compare(left, right Value) (Value, error) {
	if left.IsUndefined() || right.IsUndefined() {
		return Bool(false), nil
	}

	var cmp int
	switch {
	case left.Kind() == KindNumber && right.Kind() == KindNumber:
		cmp = left.AsNumber().Cmp(right.AsNumber())
	case left.Kind() == KindString && right.Kind() == KindString:
		s, o := left.AsString(), right.AsString()
		switch {
		case s < o:
			cmp = -1
		case s > o:
			cmp = 1
		}
	default:
		return Value{}, newEvalError(n.position, "cannot compare %s and %s", left.Kind(), right.Kind())
	}

	switch n.op {
	case LT:
		return Bool(cmp < 0), nil
	case LTE:
		return Bool(cmp <= 0), nil
	case GT:
		return Bool(cmp > 0), nil
	case GTE:
		return Bool(cmp >= 0), nil
	}
	return Value{}, newEvalError(n.position, "unknown operator %s", n.op)
}

func (n *ternaryNode) Eval(env *Env) (Value, error) {
	cond, err := n.cond.Eval(env)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return n.then.Eval(env)
	}
	return n.els.Eval(env)
}

func (n *listNode) Eval(env *Env) (Value, error) {
	elems := make([]Value, len(n.elems))
	for i, e := range n.elems {
		v, err := e.Eval(env)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return List(elems...), nil
}

func (n *mapNode) Eval(env *Env) (Value, error) {
	dict := make(map[string]Value, len(n.keys))
	for i, k := range n.keys {
		v, err := n.vals[i].Eval(env)
		if err != nil {
			return Value{}, err
		}
		dict[k] = v
	}
	return Map(dict), nil
}

func (n *callNode) Eval(env *Env) (Value, error) {
	fn, ok := functions[n.name]
	if !ok {
		return Value{}, newEvalError(n.position, "unknown function %q", n.name)
	}

	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.Eval(env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	result, err := fn.call(args)
	if err != nil {
		return Value{}, newEvalError(n.position, "%s: %v", n.name, err)
	}
	return result, nil
}

// number builds a literal node from a decimal value.
func number(pos position, d decimal.Decimal) Node {
	return &literalNode{position: pos, value: Number(d)}
}
