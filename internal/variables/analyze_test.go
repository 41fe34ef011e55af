package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_ForwardReference(t *testing.T) {
	set := mustSet(t,
		"b", NewMathExpression("a + 1"),
		"a", NewRandomNumber(1, 10, 1),
	)
	a := Analyze(set)
	assert.NoError(t, a.Err())
	assert.Equal(t, []string{"a", "b"}, a.Order)
	assert.Equal(t, []string{"a"}, a.Deps["b"])
	assert.Empty(t, a.Cycle)
}

func TestAnalyze_Undefined(t *testing.T) {
	set := mustSet(t,
		"c", NewMathExpression("missing * 2 + sqrt(4)"),
		"note", NewCustom("just some words"),
	)
	a := Analyze(set)
	assert.Equal(t, []string{"missing"}, a.Undefined["c"])
	assert.Empty(t, a.Undefined["note"])

	err := a.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "c" references undefined name "missing"`)
}

func TestAnalyze_TemplateTokens(t *testing.T) {
	set := mustSet(t,
		"a", NewRandomNumber(1, 2, 1),
		"msg", NewCustom("{{a}} and {{a * b}} and {{my var}}"),
	)
	a := Analyze(set)
	assert.Equal(t, []string{"a"}, a.Deps["msg"])
	assert.Equal(t, []string{"b", "my var"}, a.Undefined["msg"])
}

func TestAnalyze_Cycle(t *testing.T) {
	set := mustSet(t,
		"x", NewMathExpression("y + 1"),
		"y", NewMathExpression("x + 1"),
		"w", NewMathExpression("x * 2"),
		"z", NewRandomNumber(1, 2, 1),
	)
	a := Analyze(set)
	assert.Equal(t, []string{"z"}, a.Order)
	assert.Equal(t, []string{"x", "y", "w"}, a.Cycle)

	err := a.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected involving variables: x, y, w")
}

func TestAnalyze_SelfReference(t *testing.T) {
	set := mustSet(t, "n", NewMathExpression("n + 1"))
	a := Analyze(set)
	assert.Empty(t, a.Order)
	assert.Equal(t, []string{"n"}, a.Cycle)
}

func TestAnalyze_VariableShadowsMathName(t *testing.T) {
	set := mustSet(t,
		"e", NewRandomNumber(1, 2, 1),
		"f", NewMathExpression("e * pi"),
	)
	a := Analyze(set)
	assert.NoError(t, a.Err())
	assert.Equal(t, []string{"e"}, a.Deps["f"])
}

func TestAnalyze_RuleProblems(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{"min above max", NewRandomNumber(5, 1, 1), `variable "v": min 5 is greater than max 1`},
		{"bad bound", Rule{RuleData: RuleData{Type: RandomNumber, Max: "ten"}}, `variable "v": max is not an integer`},
		{"no choices", NewRandomChoice(), `variable "v": no choices`},
		{"unknown type", Rule{RuleData: RuleData{Type: "dice"}}, `variable "v": unknown rule type "dice"`},
		{"empty expression", NewMathExpression("  "), `variable "v": expression is empty`},
		{"bad expression", NewMathExpression("1 +"), `variable "v": invalid expression`},
		{"braced reference", NewMathExpression("{{a}} + 1"), `variable "v": invalid expression`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(mustSet(t, "v", tt.rule))
			err := a.Err()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
