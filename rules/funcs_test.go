package rules

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestFuncNum(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"num('1234.56')", "1234.56"},
		{"num('1,234.56')", "1234.56"},
		{"num('1.234,56')", "1234.56"},
		{"num('1 234,56')", "1234.56"},
		{"num('12,5')", "12.5"},
		{"num('1,234')", "1234"},
		{"num('1.234.567')", "1234567"},
		{"num(\"1'234.50\")", "1234.5"},
		{"num('-42')", "-42"},
		{"num(true)", "1"},
		{"num(7)", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, nil)
			want, _ := decimal.NewFromString(tt.want)
			assert.True(t, got.AsNumber().Equal(want), "got %s, want %s", got, want)
		})
	}

	_, err := Evaluate("num('not a number')", nil)
	assert.Error(t, err)
}

func TestFuncCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"currency('EUR')", true},
		{"currency('USD')", true},
		{"currency('usd')", true},
		{"currency('XYZ')", false},
		{"currency('')", false},
		{"currency(123)", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, nil)
			assert.Equal(t, tt.want, got.AsBool())
		})
	}
}

func TestFuncRegex(t *testing.T) {
	got := evalString(t, `regex('^[A-Z]+$', 'NAKD')`, nil)
	assert.True(t, got.AsBool())

	got = evalString(t, `regex('^[A-Z]+$', 'nakd')`, nil)
	assert.False(t, got.AsBool())

	_, err := Evaluate(`regex('[unclosed', 'x')`, nil)
	assert.Error(t, err)
}

func TestFuncCapture(t *testing.T) {
	// One group returns the group itself
	got := evalString(t, `capture('Dividend ([A-Z]+)', 'Dividend NDA paid')`, nil)
	assert.Equal(t, "NDA", got.AsString())

	// No groups returns the whole match
	got = evalString(t, `capture('[0-9]+', 'abc 123 def')`, nil)
	assert.Equal(t, "123", got.AsString())

	// Several groups return a list
	got = evalString(t, `capture('([A-Z]+)/([A-Z]+)', 'EUR/USD')`, nil)
	assert.Equal(t, KindList, got.Kind())
	assert.Equal(t, "EUR", got.AsList()[0].AsString())
	assert.Equal(t, "USD", got.AsList()[1].AsString())

	// No match returns null
	got = evalString(t, `capture('[0-9]+', 'abc')`, nil)
	assert.True(t, got.IsNull())
}

func TestFuncStrings(t *testing.T) {
	assert.Equal(t, "eth", evalString(t, "lower('ETH')", nil).AsString())
	assert.Equal(t, "ETH", evalString(t, "upper('eth')", nil).AsString())
	assert.Equal(t, "x y", evalString(t, "trim('  x y  ')", nil).AsString())
	assert.Equal(t, "1.5", evalString(t, "str(1.5)", nil).AsString())
}

func TestFuncListHelpers(t *testing.T) {
	got := evalString(t, "sum([1, 2, '3,5', null])", nil)
	want, _ := decimal.NewFromString("6.5")
	assert.True(t, got.AsNumber().Equal(want), "got %s", got)

	assert.True(t, evalString(t, "has([1, 2, 3], 2)", nil).AsBool())
	assert.False(t, evalString(t, "has(['a'], 'b')", nil).AsBool())

	got = evalString(t, "collect([{v: 1}, {x: 9}, {v: 2}], 'v')", nil)
	assert.Equal(t, 2, len(got.AsList()))
	assert.True(t, got.AsList()[1].AsNumber().Equal(decimal.NewFromInt(2)))
}

func TestFuncRates(t *testing.T) {
	got := evalString(t, "rates('EUR', 1, 'USD', '1,0843')", nil)
	assert.Equal(t, KindMap, got.Kind())

	usd, _ := decimal.NewFromString("1.0843")
	assert.True(t, got.AsMap()["USD"].AsNumber().Equal(usd))
	assert.True(t, got.AsMap()["EUR"].AsNumber().Equal(decimal.NewFromInt(1)))

	_, err := Evaluate("rates('EUR', 1, 'USD')", nil)
	assert.Error(t, err)
}

func TestFuncChosen(t *testing.T) {
	got := evalString(t, "chosen({FB: 2, META: 5})", nil)
	assert.Equal(t, "META", got.AsString())

	// Ties break to the lexicographically first key
	got = evalString(t, "chosen({b: 1, a: 1})", nil)
	assert.Equal(t, "a", got.AsString())

	got = evalString(t, "chosen({})", nil)
	assert.True(t, got.IsNull())
}

func TestFuncMinMaxAbs(t *testing.T) {
	assert.True(t, evalString(t, "min(3, 1, 2)", nil).AsNumber().Equal(decimal.NewFromInt(1)))
	assert.True(t, evalString(t, "max([3, 1, 2])", nil).AsNumber().Equal(decimal.NewFromInt(3)))
	assert.True(t, evalString(t, "abs(-4)", nil).AsNumber().Equal(decimal.NewFromInt(4)))
}
