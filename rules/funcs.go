package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// function is one entry in the fixed library callable from rule expressions.
// All functions are pure. A maxArgs of -1 means variadic.
type function struct {
	minArgs int
	maxArgs int
	call    func(args []Value) (Value, error)
}

var functions = map[string]function{
	"num":      {1, 1, fnNum},
	"str":      {1, 1, fnStr},
	"abs":      {1, 1, fnAbs},
	"min":      {1, -1, fnMin},
	"max":      {1, -1, fnMax},
	"currency": {1, 1, fnCurrency},
	"regex":    {2, 2, fnRegex},
	"capture":  {2, 2, fnCapture},
	"lower":    {1, 1, fnLower},
	"upper":    {1, 1, fnUpper},
	"trim":     {1, 1, fnTrim},
	"sum":      {1, 1, fnSum},
	"has":      {2, 2, fnHas},
	"collect":  {2, 2, fnCollect},
	"rates":    {2, -1, fnRates},
	"chosen":   {1, 1, fnChosen},
}

// fnNum converts its argument to a number. String input tolerates thousands
// separators (space, apostrophe, grouping comma or dot) and either comma or
// dot as the decimal separator.
func fnNum(args []Value) (Value, error) {
	switch args[0].Kind() {
	case KindNumber:
		return args[0], nil
	case KindString:
		d, err := parseLooseNumber(args[0].AsString())
		if err != nil {
			return Value{}, err
		}
		return Number(d), nil
	case KindBool:
		if args[0].AsBool() {
			return NumberFromInt(1), nil
		}
		return NumberFromInt(0), nil
	default:
		return Value{}, fmt.Errorf("cannot convert %s to number", args[0].Kind())
	}
}

func fnStr(args []Value) (Value, error) {
	return String(args[0].String()), nil
}

func fnAbs(args []Value) (Value, error) {
	if args[0].Kind() != KindNumber {
		return Value{}, fmt.Errorf("expected number, got %s", args[0].Kind())
	}
	return Number(args[0].AsNumber().Abs()), nil
}

func fnMin(args []Value) (Value, error) {
	return pickNumber(args, func(best, next decimal.Decimal) bool { return next.LessThan(best) })
}

func fnMax(args []Value) (Value, error) {
	return pickNumber(args, func(best, next decimal.Decimal) bool { return next.GreaterThan(best) })
}

func pickNumber(args []Value, better func(best, next decimal.Decimal) bool) (Value, error) {
	// A single list argument is treated as the candidate set
	if len(args) == 1 && args[0].Kind() == KindList {
		args = args[0].AsList()
	}
	if len(args) == 0 {
		return Null(), nil
	}

	if args[0].Kind() != KindNumber {
		return Value{}, fmt.Errorf("expected number, got %s", args[0].Kind())
	}
	best := args[0].AsNumber()
	for _, a := range args[1:] {
		if a.Kind() != KindNumber {
			return Value{}, fmt.Errorf("expected number, got %s", a.Kind())
		}
		if better(best, a.AsNumber()) {
			best = a.AsNumber()
		}
	}
	return Number(best), nil
}

// fnCurrency reports whether its argument is a known ISO 4217 currency code.
func fnCurrency(args []Value) (Value, error) {
	if args[0].Kind() != KindString {
		return Bool(false), nil
	}
	code := strings.ToUpper(strings.TrimSpace(args[0].AsString()))
	return Bool(money.GetCurrency(code) != nil), nil
}

func fnRegex(args []Value) (Value, error) {
	re, s, err := regexArgs(args)
	if err != nil {
		return Value{}, err
	}
	return Bool(re.MatchString(s)), nil
}

// fnCapture returns the first capture group of the match, all groups as a
// list when the pattern has several, the whole match when it has none, and
// null when the pattern does not match.
func fnCapture(args []Value) (Value, error) {
	re, s, err := regexArgs(args)
	if err != nil {
		return Value{}, err
	}

	m := re.FindStringSubmatch(s)
	if m == nil {
		return Null(), nil
	}
	switch len(m) {
	case 1:
		return String(m[0]), nil
	case 2:
		return String(m[1]), nil
	default:
		groups := make([]Value, len(m)-1)
		for i, g := range m[1:] {
			groups[i] = String(g)
		}
		return List(groups...), nil
	}
}

func regexArgs(args []Value) (*regexp.Regexp, string, error) {
	if args[0].Kind() != KindString || args[1].Kind() != KindString {
		return nil, "", fmt.Errorf("expected string pattern and subject")
	}
	re, err := regexp.Compile(args[0].AsString())
	if err != nil {
		return nil, "", fmt.Errorf("invalid pattern: %v", err)
	}
	return re, args[1].AsString(), nil
}

func fnLower(args []Value) (Value, error) {
	return stringFn(args[0], strings.ToLower)
}

func fnUpper(args []Value) (Value, error) {
	return stringFn(args[0], strings.ToUpper)
}

func fnTrim(args []Value) (Value, error) {
	return stringFn(args[0], strings.TrimSpace)
}

func stringFn(v Value, fn func(string) string) (Value, error) {
	if v.Kind() != KindString {
		return Value{}, fmt.Errorf("expected string, got %s", v.Kind())
	}
	return String(fn(v.AsString())), nil
}

// fnSum adds up the numbers in a list. String elements are parsed the same
// way num parses them; null and undefined elements count as zero.
func fnSum(args []Value) (Value, error) {
	if args[0].Kind() != KindList {
		return Value{}, fmt.Errorf("expected list, got %s", args[0].Kind())
	}

	total := decimal.Zero
	for _, e := range args[0].AsList() {
		switch e.Kind() {
		case KindNumber:
			total = total.Add(e.AsNumber())
		case KindString:
			d, err := parseLooseNumber(e.AsString())
			if err != nil {
				return Value{}, err
			}
			total = total.Add(d)
		case KindNull, KindUndefined:
			// counts as zero
		default:
			return Value{}, fmt.Errorf("cannot sum %s", e.Kind())
		}
	}
	return Number(total), nil
}

func fnHas(args []Value) (Value, error) {
	if args[0].Kind() != KindList {
		return Value{}, fmt.Errorf("expected list, got %s", args[0].Kind())
	}
	for _, e := range args[0].AsList() {
		if e.Equal(args[1]) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

// fnCollect extracts the value under a key from each map in a list, skipping
// entries that do not carry the key.
func fnCollect(args []Value) (Value, error) {
	if args[0].Kind() != KindList {
		return Value{}, fmt.Errorf("expected list, got %s", args[0].Kind())
	}
	if args[1].Kind() != KindString {
		return Value{}, fmt.Errorf("expected string key, got %s", args[1].Kind())
	}

	key := args[1].AsString()
	var collected []Value
	for _, e := range args[0].AsList() {
		if e.Kind() != KindMap {
			continue
		}
		if v, ok := e.AsMap()[key]; ok {
			collected = append(collected, v)
		}
	}
	return List(collected...), nil
}

// fnRates builds a conversion rate table from alternating currency code and
// rate arguments: rates('EUR', 1, 'USD', 1.0843).
func fnRates(args []Value) (Value, error) {
	if len(args)%2 != 0 {
		return Value{}, fmt.Errorf("expected currency and rate pairs")
	}

	table := make(map[string]Value, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if args[i].Kind() != KindString {
			return Value{}, fmt.Errorf("expected currency code, got %s", args[i].Kind())
		}
		rate, err := fnNum(args[i+1 : i+2])
		if err != nil {
			return Value{}, err
		}
		table[strings.ToUpper(args[i].AsString())] = rate
	}
	return Map(table), nil
}

// fnChosen resolves the most chosen answer from a weighted map, i.e. the key
// with the highest numeric weight. Ties break to the lexicographically first
// key so the result is deterministic.
func fnChosen(args []Value) (Value, error) {
	if args[0].Kind() != KindMap {
		return Value{}, fmt.Errorf("expected map, got %s", args[0].Kind())
	}
	weights := args[0].AsMap()
	if len(weights) == 0 {
		return Null(), nil
	}

	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	var bestWeight decimal.Decimal
	for _, k := range keys {
		w := weights[k]
		if w.Kind() != KindNumber {
			return Value{}, fmt.Errorf("weight for %q is not a number", k)
		}
		if best == "" || w.AsNumber().GreaterThan(bestWeight) {
			best = k
			bestWeight = w.AsNumber()
		}
	}
	return String(best), nil
}

// parseLooseNumber parses a human-formatted number. It strips spacing and
// apostrophe group separators, then decides between comma and dot decimal
// conventions: when both appear the rightmost is the decimal separator;
// a lone comma is a decimal separator unless it is followed by exactly three
// digits; repeated separators always group thousands.
func parseLooseNumber(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '\'', '’':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	lastComma := strings.LastIndexByte(cleaned, ',')
	lastDot := strings.LastIndexByte(cleaned, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}

	case lastComma >= 0:
		if strings.Count(cleaned, ",") == 1 && len(cleaned)-lastComma-1 != 3 {
			// 12,5
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// 1,234 or 1,234,567
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}

	case lastDot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			// 1.234.567
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		// A single dot is always the decimal separator
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}
