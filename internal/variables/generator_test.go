package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmaker/internal/expr"
)

func mustSet(t *testing.T, pairs ...any) *Set {
	t.Helper()
	s := NewSet()
	for i := 0; i < len(pairs); i += 2 {
		require.NoError(t, s.Add(pairs[i].(string), pairs[i+1].(Rule)))
	}
	return s
}

func TestGenerate_RandomNumberBounds(t *testing.T) {
	g := NewGenerator(WithSeed(1))
	set := mustSet(t, "a", NewRandomNumber(3, 7, 1))

	for range 200 {
		v := g.Generate(set)["a"]
		n, ok := v.(int64)
		require.True(t, ok, "expected int64, got %T", v)
		assert.GreaterOrEqual(t, n, int64(3))
		assert.LessOrEqual(t, n, int64(7))
	}
}

func TestGenerate_RandomNumberStep(t *testing.T) {
	g := NewGenerator(WithSeed(2))
	set := mustSet(t, "a", NewRandomNumber(0, 20, 5))

	seen := map[int64]bool{}
	for range 500 {
		n := g.Generate(set)["a"].(int64)
		require.Zero(t, n%5, "value %d is not on the step grid", n)
		require.True(t, n >= 0 && n <= 20)
		seen[n] = true
	}
	assert.Len(t, seen, 5)
}

func TestGenerate_RandomNumberEdgeCases(t *testing.T) {
	g := NewGenerator(WithSeed(3))

	t.Run("defaults", func(t *testing.T) {
		set := mustSet(t, "a", Rule{RuleData: RuleData{Type: RandomNumber}})
		n := g.Generate(set)["a"].(int64)
		assert.True(t, n >= 1 && n <= 10)
	})

	t.Run("numeric strings and floats", func(t *testing.T) {
		set := mustSet(t, "a", Rule{RuleData: RuleData{Type: RandomNumber, Min: "2", Max: 4.9}})
		n := g.Generate(set)["a"].(int64)
		assert.True(t, n >= 2 && n <= 4)
	})

	t.Run("single value", func(t *testing.T) {
		set := mustSet(t, "a", NewRandomNumber(5, 5, 3))
		assert.Equal(t, int64(5), g.Generate(set)["a"])
	})

	t.Run("min greater than max", func(t *testing.T) {
		set := mustSet(t, "a", NewRandomNumber(9, 1, 1))
		assert.Equal(t, Unresolved, g.Generate(set)["a"])
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		set := mustSet(t, "a", Rule{RuleData: RuleData{Type: RandomNumber, Min: "abc"}})
		assert.Equal(t, Unresolved, g.Generate(set)["a"])
	})
}

func TestGenerate_RandomChoice(t *testing.T) {
	g := NewGenerator(WithSeed(4))
	set := mustSet(t,
		"color", NewRandomChoice("red", "green", "blue"),
		"none", NewRandomChoice(),
	)
	for range 50 {
		s := g.Generate(set)
		assert.Contains(t, []any{"red", "green", "blue"}, s["color"])
		assert.Equal(t, "", s["none"])
	}
}

func TestGenerate_ForwardReference(t *testing.T) {
	set := mustSet(t,
		"b", NewMathExpression("a + 1"),
		"a", NewRandomNumber(5, 5, 1),
	)
	s := NewGenerator().Generate(set)
	assert.Equal(t, int64(5), s["a"])
	assert.Equal(t, int64(6), s["b"])
}

func TestGenerate_BracedReferenceInMathExpressionFails(t *testing.T) {
	set := mustSet(t,
		"a", NewRandomNumber(4, 4, 1),
		"b", NewMathExpression("{{a}} * 2 + 5"),
	)
	s := NewGenerator().Generate(set)
	assert.Equal(t, int64(4), s["a"])
	assert.Equal(t, Unresolved, s["b"])
}

func TestGenerate_CycleIsUnresolved(t *testing.T) {
	set := mustSet(t,
		"x", NewMathExpression("y + 1"),
		"y", NewMathExpression("x + 1"),
		"z", NewMathExpression("2"),
	)
	s := NewGenerator().Generate(set)
	assert.Equal(t, Unresolved, s["x"])
	assert.Equal(t, Unresolved, s["y"])
	assert.Equal(t, int64(2), s["z"])
}

func TestGenerate_Custom(t *testing.T) {
	set := mustSet(t,
		"a", NewRandomNumber(5, 5, 1),
		"phrase", NewCustom("{{a}} apples"),
		"triple", NewCustom("a * 3"),
		"prose", NewCustom("hello world"),
		"pick", NewCustom("select(a, {5: 'five'}, 'other')"),
	)
	s := NewGenerator().Generate(set)
	assert.Equal(t, "5 apples", s["phrase"])
	assert.Equal(t, int64(15), s["triple"])
	assert.Equal(t, "hello world", s["prose"])
	assert.Equal(t, "five", s["pick"])
}

func TestGenerate_CustomTemplateAcceptedWhenUnresolved(t *testing.T) {
	// Templates are accepted on the first attempt even with missing values.
	set := mustSet(t,
		"msg", NewCustom("value {{later}}"),
		"later", NewRandomNumber(1, 1, 1),
	)
	s := NewGenerator().Generate(set)
	assert.Equal(t, "value {{later}}", s["msg"])
	assert.Equal(t, int64(1), s["later"])
}

func TestGenerate_UnknownTypeUsesDescription(t *testing.T) {
	set := mustSet(t, "a", Rule{RuleData: RuleData{Type: "dice", Description: "roll"}})
	assert.Equal(t, "roll", NewGenerator().Generate(set)["a"])
}

func TestGenerate_PassLimit(t *testing.T) {
	set := mustSet(t,
		"z", NewMathExpression("y + 1"),
		"y", NewMathExpression("x + 1"),
		"x", NewMathExpression("w + 1"),
		"w", NewMathExpression("1"),
	)

	full := NewGenerator().Generate(set)
	assert.Equal(t, Sample{"w": int64(1), "x": int64(2), "y": int64(3), "z": int64(4)}, full)

	short := NewGenerator(WithPasses(2)).Generate(set)
	assert.Equal(t, int64(2), short["x"])
	assert.Equal(t, Unresolved, short["y"])
	assert.Equal(t, Unresolved, short["z"])
}

func TestGenerate_EveryNameResolvedOrUnresolved(t *testing.T) {
	set := mustSet(t,
		"a", NewRandomNumber(1, 3, 1),
		"bad", NewMathExpression("1 / 0"),
		"c", NewCustom("{{a}}"),
	)
	s := NewGenerator(WithSeed(9)).Generate(set)
	require.Len(t, s, 3)
	for name, v := range s {
		assert.NotEqual(t, expr.ErrSentinel, v, "variable %s", name)
	}
	assert.Equal(t, Unresolved, s["bad"])
}

func TestGenerate_SeededReproducible(t *testing.T) {
	set := mustSet(t,
		"a", NewRandomNumber(1, 1000, 1),
		"b", NewRandomChoice("p", "q", "r", "s"),
		"c", NewMathExpression("a * 2"),
	)
	g1 := NewGenerator(WithSeed(42))
	g2 := NewGenerator(WithSeed(42))
	for range 20 {
		assert.Equal(t, g1.Generate(set), g2.Generate(set))
	}
}

func TestGenerate_EmptySet(t *testing.T) {
	assert.Empty(t, NewGenerator().Generate(NewSet()))
}
