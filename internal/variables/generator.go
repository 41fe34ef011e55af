package variables

import (
	"math/rand/v2"
	"regexp"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/render"
)

// DefaultPasses is the number of resolution passes Generate makes.
const DefaultPasses = 5

// Generator produces samples from a Set. A Generator using the global
// random source is safe for concurrent use; one built WithRand is not.
type Generator struct {
	rng    *rand.Rand
	passes int
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source. Nil keeps the global source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithSeed uses a PCG source seeded with seed, for reproducible output.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithPasses sets the number of resolution passes. Values below 1 are ignored.
func WithPasses(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.passes = n
		}
	}
}

// NewGenerator returns a Generator with DefaultPasses and the global source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{passes: DefaultPasses}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate resolves every variable in set. Variables are attempted in
// declaration order, repeatedly, so later declarations can feed earlier
// ones. Whatever is still missing after the last pass becomes Unresolved.
func (g *Generator) Generate(set *Set) Sample {
	names := set.Names()
	sample := make(Sample, len(names))
	for pass := 0; pass < g.passes && len(sample) < len(names); pass++ {
		for _, name := range names {
			if _, done := sample[name]; done {
				continue
			}
			rule, _ := set.Get(name)
			v := g.Value(name, rule, sample)
			if isErr(v) {
				continue
			}
			sample[name] = v
		}
	}
	for _, name := range names {
		if _, ok := sample[name]; !ok {
			sample[name] = Unresolved
		}
	}
	return sample
}

// Value produces one value for rule against the partial sample. It returns
// expr.ErrSentinel when the value cannot be produced yet.
func (g *Generator) Value(name string, rule Rule, partial Sample) any {
	d := rule.RuleData
	switch rule.Kind() {
	case RandomNumber:
		return g.randomNumber(d)
	case RandomChoice:
		if len(d.Choices) == 0 {
			return ""
		}
		return d.Choices[g.intN(len(d.Choices))]
	case MathExpression:
		v, ok := expr.Evaluate(d.Expression, partial)
		if !ok {
			return expr.ErrSentinel
		}
		return v
	case Custom:
		if render.HasTokens(d.Description) {
			return render.Render(d.Description, partial)
		}
		if v, ok := expr.Evaluate(d.Description, partial); ok {
			return v
		}
		return d.Description
	default:
		return d.Description
	}
}

func (g *Generator) randomNumber(d RuleData) any {
	lo, err := intParam(d.Min, 1)
	if err != nil {
		return expr.ErrSentinel
	}
	hi, err := intParam(d.Max, 10)
	if err != nil {
		return expr.ErrSentinel
	}
	step, err := intParam(d.Step, 1)
	if err != nil {
		return expr.ErrSentinel
	}
	if lo > hi {
		return expr.ErrSentinel
	}
	if step <= 1 {
		return g.between(lo, hi)
	}
	// Uniform over lo, lo+step, ... <= hi; lo <= hi so this is non-empty.
	count := (uint64(hi)-uint64(lo))/uint64(step) + 1
	return lo + int64(g.uint64N(count))*step
}

func intParam(v any, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	return expr.ToInt(v)
}

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo) + 1
	if span == 0 {
		return int64(g.uint64())
	}
	return lo + int64(g.uint64N(span))
}

func (g *Generator) intN(n int) int {
	if g.rng != nil {
		return g.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (g *Generator) uint64N(n uint64) uint64 {
	if g.rng != nil {
		return g.rng.Uint64N(n)
	}
	return rand.Uint64N(n)
}

func (g *Generator) uint64() uint64 {
	if g.rng != nil {
		return g.rng.Uint64()
	}
	return rand.Uint64()
}

func isErr(v any) bool {
	s, ok := v.(string)
	return ok && s == expr.ErrSentinel
}

var refRe = regexp.MustCompile(`\{\{(.*?)\}\}`)
