package address

import (
	"fmt"
	"strings"
)

// Op is a predicate clause operator.
type Op string

const (
	OpEq Op = "="
	OpIn Op = "IN"
)

// Clause is one conjunctive condition on a concrete-account lookup.
// Value is a string for OpEq and a []string for OpIn.
type Clause struct {
	Field string
	Op    Op
	Value interface{}
}

// Predicate is an ordered list of conjunctive clauses. The caller runs it
// against its chart of accounts; clause order is deterministic so that the
// same address always produces the same lookup.
type Predicate []Clause

// String renders the predicate in SQL-ish form, mainly for diagnostics.
func (p Predicate) String() string {
	var buf strings.Builder
	for i, c := range p {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		switch v := c.Value.(type) {
		case []string:
			buf.WriteString(c.Field)
			buf.WriteString(" IN (")
			buf.WriteString(strings.Join(v, ", "))
			buf.WriteByte(')')
		default:
			fmt.Fprintf(&buf, "%s = %v", c.Field, c.Value)
		}
	}
	return buf.String()
}
