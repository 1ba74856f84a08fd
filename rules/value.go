package rules

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the runtime type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating a rule expression. It is a tagged union
// over null, undefined, boolean, number, string, list and map. Numbers use
// decimal arithmetic to avoid floating point precision issues.
type Value struct {
	kind Kind
	b    bool
	num  decimal.Decimal
	str  string
	list []Value
	dict map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Undefined returns the undefined value, produced by referencing an unknown
// variable outside strict mode.
func Undefined() Value { return Value{kind: KindUndefined} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a decimal number.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// NumberFromInt wraps an integer as a number.
func NumberFromInt(n int64) Value { return Number(decimal.NewFromInt(n)) }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List wraps a list of values.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Map wraps a string-keyed map of values.
func Map(m map[string]Value) Value { return Value{kind: KindMap, dict: m} }

// Kind returns the runtime type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsUndefined reports whether the value is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// AsBool returns the boolean payload. Only meaningful for KindBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload. Only meaningful for KindNumber.
func (v Value) AsNumber() decimal.Decimal { return v.num }

// AsString returns the string payload. Only meaningful for KindString.
func (v Value) AsString() string { return v.str }

// AsList returns the list payload. Only meaningful for KindList.
func (v Value) AsList() []Value { return v.list }

// AsMap returns the map payload. Only meaningful for KindMap.
func (v Value) AsMap() map[string]Value { return v.dict }

// Truthy returns the boolean interpretation of the value: null, undefined,
// false, zero, the empty string and empty containers are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return !v.num.IsZero()
	case KindString:
		return v.str != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.dict) > 0
	default:
		return false
	}
}

// Equal reports whether two values are equal. Values of different kinds are
// never equal, except that numbers compare by numeric value regardless of
// representation.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num.Equal(o.num)
	case KindString:
		return v.str == o.str
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for k, e := range v.dict {
			oe, ok := o.dict[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the display representation of the value.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindList:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(e.String())
		}
		buf.WriteByte(']')
		return buf.String()
	case KindMap:
		keys := make([]string, 0, len(v.dict))
		for k := range v.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf strings.Builder
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(v.dict[k].String())
		}
		buf.WriteByte('}')
		return buf.String()
	default:
		return "unknown"
	}
}
