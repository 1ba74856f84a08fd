package rules

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func evalString(t *testing.T, input string, env *Env) Value {
	t.Helper()

	v, err := Evaluate(input, env)
	assert.NoError(t, err)
	return v
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 + 3", "5"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 / 4", "2.5"},
		{"-5 + 3", "-2"},
		{"-(2 + 3)", "-5"},
		{"1.5 * 2", "3"},
		{"100 - 25.5", "74.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, nil)
			want, _ := decimal.NewFromString(tt.want)
			assert.Equal(t, KindNumber, got.Kind())
			assert.True(t, got.AsNumber().Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"4 >= 4", true},
		{"1 == 1.0", true},
		{"1 != 2", true},
		{"'abc' == 'abc'", true},
		{"'abc' < 'abd'", true},
		{"'a' == 1", false},
		{"null == null", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, nil)
			assert.Equal(t, KindBool, got.Kind())
			assert.Equal(t, tt.want, got.AsBool())
		})
	}
}

func TestEvaluate_BooleanConnectives(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true and true", true},
		{"true and false", false},
		{"false or true", true},
		{"false or false", false},
		{"not false", true},
		{"!true", false},
		{"not 1 == 2", true},
		{"1 < 2 and 2 < 3", true},
		{"true && false", false},
		{"false || true", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalString(t, tt.input, nil)
			assert.Equal(t, KindBool, got.Kind())
			assert.Equal(t, tt.want, got.AsBool())
		})
	}
}

func TestEvaluate_Ternary(t *testing.T) {
	env := &Env{Vars: map[string]Value{
		"currency": String("EUR"),
	}}

	got := evalString(t, "currency == 'EUR' ? '1910' : '1920'", env)
	assert.Equal(t, "1910", got.AsString())

	got = evalString(t, "currency == 'USD' ? '1910' : '1920'", env)
	assert.Equal(t, "1920", got.AsString())

	// Nested ternaries associate to the right
	got = evalString(t, "false ? 1 : true ? 2 : 3", nil)
	assert.True(t, got.AsNumber().Equal(decimal.NewFromInt(2)))
}

func TestEvaluate_Variables(t *testing.T) {
	env := &Env{Vars: map[string]Value{
		"amount":           NumberFromInt(500),
		"name with spaces": String("hello"),
	}}

	got := evalString(t, "amount * 2", env)
	assert.True(t, got.AsNumber().Equal(decimal.NewFromInt(1000)))

	got = evalString(t, `$("name with spaces")`, env)
	assert.Equal(t, "hello", got.AsString())
}

func TestEvaluate_UndefinedVariable(t *testing.T) {
	t.Run("lenient mode yields undefined", func(t *testing.T) {
		got := evalString(t, "missing", &Env{})
		assert.True(t, got.IsUndefined())

		// Undefined propagates through arithmetic
		got = evalString(t, "missing + 1", &Env{})
		assert.True(t, got.IsUndefined())

		// Undefined compares as false
		got = evalString(t, "missing > 0", &Env{})
		assert.False(t, got.AsBool())
	})

	t.Run("strict mode raises", func(t *testing.T) {
		_, err := Evaluate("missing + 1", &Env{Strict: true})
		assert.Error(t, err)

		var perr *ParseError
		assert.True(t, errors.As(err, &perr))
	})
}

func TestEvaluate_ListsAndMaps(t *testing.T) {
	got := evalString(t, "[1, 2, 3]", nil)
	assert.Equal(t, KindList, got.Kind())
	assert.Equal(t, 3, len(got.AsList()))

	got = evalString(t, "{a: 1, 'b c': 2}", nil)
	assert.Equal(t, KindMap, got.Kind())
	assert.True(t, got.AsMap()["b c"].AsNumber().Equal(decimal.NewFromInt(2)))

	got = evalString(t, "[1] + [2, 3]", nil)
	assert.Equal(t, 3, len(got.AsList()))
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []string{
		"1 / 0",
		"'a' - 1",
		"1 < 'a'",
		"-'abc'",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Evaluate(input, nil)
			assert.Error(t, err)
		})
	}
}
