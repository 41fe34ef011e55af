package expr

import (
	"fmt"
	"math"
	"math/big"
)

func registerMath() {
	mathBuiltins["pi"] = math.Pi
	mathBuiltins["e"] = math.E
	mathBuiltins["tau"] = 2 * math.Pi
	mathBuiltins["inf"] = math.Inf(1)
	mathBuiltins["nan"] = math.NaN()

	unaryFloat := map[string]func(float64) float64{
		"sqrt":    math.Sqrt,
		"exp":     math.Exp,
		"exp2":    math.Exp2,
		"expm1":   math.Expm1,
		"log2":    math.Log2,
		"log10":   math.Log10,
		"log1p":   math.Log1p,
		"cbrt":    math.Cbrt,
		"fabs":    math.Abs,
		"sin":     math.Sin,
		"cos":     math.Cos,
		"tan":     math.Tan,
		"asin":    math.Asin,
		"acos":    math.Acos,
		"atan":    math.Atan,
		"sinh":    math.Sinh,
		"cosh":    math.Cosh,
		"tanh":    math.Tanh,
		"asinh":   math.Asinh,
		"acosh":   math.Acosh,
		"atanh":   math.Atanh,
		"erf":     math.Erf,
		"erfc":    math.Erfc,
		"gamma":   math.Gamma,
		"lgamma":  func(x float64) float64 { v, _ := math.Lgamma(x); return v },
		"degrees": func(x float64) float64 { return x * 180 / math.Pi },
		"radians": func(x float64) float64 { return x * math.Pi / 180 },
	}
	for name, f := range unaryFloat {
		mathFunc(name, nil, func(args []any, _ map[string]any) (any, error) {
			if err := arity(args, 1, 1); err != nil {
				return nil, err
			}
			x, err := floatArg(args[0])
			if err != nil {
				return nil, err
			}
			return checked(f(x), x)
		})
	}

	mathFunc("floor", nil, rounding(math.Floor))
	mathFunc("ceil", nil, rounding(math.Ceil))
	mathFunc("trunc", nil, rounding(math.Trunc))
	mathFunc("log", nil, mathLog)
	mathFunc("atan2", nil, binaryFloat(math.Atan2))
	mathFunc("copysign", nil, binaryFloat(math.Copysign))
	mathFunc("fmod", nil, binaryFloat(func(x, y float64) float64 {
		if y == 0 {
			return math.NaN()
		}
		return math.Mod(x, y)
	}))
	mathFunc("ldexp", nil, mathLdexp)
	mathFunc("frexp", nil, mathFrexp)
	mathFunc("modf", nil, mathModf)
	mathFunc("hypot", nil, mathHypot)
	mathFunc("dist", nil, mathDist)
	mathFunc("factorial", nil, mathFactorial)
	mathFunc("gcd", nil, mathGCD)
	mathFunc("lcm", nil, mathLCM)
	mathFunc("comb", nil, mathComb)
	mathFunc("perm", nil, mathPerm)
	mathFunc("isqrt", nil, mathIsqrt)
	mathFunc("isclose", []string{"rel_tol", "abs_tol"}, mathIsclose)
	mathFunc("isfinite", nil, floatPredicate(func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }))
	mathFunc("isinf", nil, floatPredicate(func(x float64) bool { return math.IsInf(x, 0) }))
	mathFunc("isnan", nil, floatPredicate(math.IsNaN))
	mathFunc("fsum", nil, mathFsum)
	mathFunc("prod", []string{"start"}, mathProd)
}

func mathFunc(name string, kwargs []string, fn func([]any, map[string]any) (any, error)) {
	mathBuiltins[name] = &Builtin{Name: name, kwargs: kwargs, fn: fn}
}

// checked turns NaN or infinite results from finite inputs into errors,
// so domain errors surface instead of propagating.
func checked(out float64, in ...float64) (any, error) {
	for _, x := range in {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return out, nil
		}
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, errMathDomain
	}
	return out, nil
}

func binaryFloat(f func(x, y float64) float64) func([]any, map[string]any) (any, error) {
	return func(args []any, _ map[string]any) (any, error) {
		if err := arity(args, 2, 2); err != nil {
			return nil, err
		}
		x, err := floatArg(args[0])
		if err != nil {
			return nil, err
		}
		y, err := floatArg(args[1])
		if err != nil {
			return nil, err
		}
		return checked(f(x, y), x, y)
	}
}

func floatPredicate(f func(float64) bool) func([]any, map[string]any) (any, error) {
	return func(args []any, _ map[string]any) (any, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		x, err := floatArg(args[0])
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
}

// rounding returns an int, as floor, ceil and trunc do.
func rounding(f func(float64) float64) func([]any, map[string]any) (any, error) {
	return func(args []any, _ map[string]any) (any, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		i, x, isFloat, ok := numeric(args[0])
		if !ok {
			return nil, fmt.Errorf("must be real number, not %s", typeName(args[0]))
		}
		if !isFloat {
			return i, nil
		}
		return floatToInt(f(x))
	}
}

func mathLog(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 2); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	if x <= 0 {
		return nil, errMathDomain
	}
	if len(args) == 1 {
		return math.Log(x), nil
	}
	b, err := floatArg(args[1])
	if err != nil {
		return nil, err
	}
	if b <= 0 {
		return nil, errMathDomain
	}
	if b == 1 {
		return nil, errZeroDiv
	}
	return math.Log(x) / math.Log(b), nil
}

func mathLdexp(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 2, 2); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	n, err := intArg(args[1])
	if err != nil {
		return nil, err
	}
	n = max(min(n, 1<<16), -(1 << 16))
	return checked(math.Ldexp(x, int(n)), x)
}

func mathFrexp(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	frac, exp := math.Frexp(x)
	return Tuple{frac, int64(exp)}, nil
}

func mathModf(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	x, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	whole, frac := math.Modf(x)
	return Tuple{frac, whole}, nil
}

func mathHypot(args []any, _ map[string]any) (any, error) {
	sum := 0.0
	for _, a := range args {
		x, err := floatArg(a)
		if err != nil {
			return nil, err
		}
		sum += x * x
	}
	return math.Sqrt(sum), nil
}

func mathDist(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 2, 2); err != nil {
		return nil, err
	}
	p, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	q, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	if len(p) != len(q) {
		return nil, fmt.Errorf("both points must have the same number of dimensions")
	}
	sum := 0.0
	for i := range p {
		x, err := floatArg(p[i])
		if err != nil {
			return nil, err
		}
		y, err := floatArg(q[i])
		if err != nil {
			return nil, err
		}
		sum += (x - y) * (x - y)
	}
	return math.Sqrt(sum), nil
}

func mathFactorial(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	n, err := intArg(args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("factorial() not defined for negative values")
	}
	result := int64(1)
	for i := int64(2); i <= n; i++ {
		if result, err = mulInt(result, i); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func intArgs(args []any) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		n, err := intArg(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func mathGCD(args []any, _ map[string]any) (any, error) {
	ns, err := intArgs(args)
	if err != nil {
		return nil, err
	}
	g := int64(0)
	for _, n := range ns {
		g = gcd(g, n)
	}
	return g, nil
}

func mathLCM(args []any, _ map[string]any) (any, error) {
	ns, err := intArgs(args)
	if err != nil {
		return nil, err
	}
	l := int64(1)
	for _, n := range ns {
		if n == 0 {
			return int64(0), nil
		}
		if n < 0 {
			n = -n
		}
		if l, err = mulInt(l/gcd(l, n), n); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func mathComb(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 2, 2); err != nil {
		return nil, err
	}
	ns, err := intArgs(args)
	if err != nil {
		return nil, err
	}
	n, k := ns[0], ns[1]
	if n < 0 || k < 0 {
		return nil, fmt.Errorf("must be a non-negative integer")
	}
	if k > n {
		return int64(0), nil
	}
	r := new(big.Int).Binomial(n, k)
	if !r.IsInt64() {
		return nil, errOverflow
	}
	return r.Int64(), nil
}

func mathPerm(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 2); err != nil {
		return nil, err
	}
	if len(args) == 1 || args[1] == nil {
		return mathFactorial(args[:1], nil)
	}
	ns, err := intArgs(args)
	if err != nil {
		return nil, err
	}
	n, k := ns[0], ns[1]
	if n < 0 || k < 0 {
		return nil, fmt.Errorf("must be a non-negative integer")
	}
	if k > n {
		return int64(0), nil
	}
	result := int64(1)
	for i := n - k + 1; i <= n; i++ {
		if result, err = mulInt(result, i); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mathIsqrt(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	n, err := intArg(args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("isqrt() argument must be nonnegative")
	}
	return new(big.Int).Sqrt(big.NewInt(n)).Int64(), nil
}

func mathIsclose(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 2, 2); err != nil {
		return nil, err
	}
	a, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	b, err := floatArg(args[1])
	if err != nil {
		return nil, err
	}
	rel, err := floatArg(optional(nil, 0, kw, "rel_tol", 1e-09))
	if err != nil {
		return nil, err
	}
	abs, err := floatArg(optional(nil, 0, kw, "abs_tol", 0.0))
	if err != nil {
		return nil, err
	}
	if rel < 0 || abs < 0 {
		return nil, fmt.Errorf("tolerances must be non-negative")
	}
	if a == b {
		return true, nil
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false, nil
	}
	diff := math.Abs(a - b)
	return diff <= rel*math.Abs(b) || diff <= rel*math.Abs(a) || diff <= abs, nil
}

// mathFsum uses Neumaier compensated summation.
func mathFsum(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	sum, comp := 0.0, 0.0
	for _, it := range items {
		x, err := floatArg(it)
		if err != nil {
			return nil, err
		}
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			comp += (sum - t) + x
		} else {
			comp += (x - t) + sum
		}
		sum = t
	}
	return sum + comp, nil
}

func mathProd(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	acc := optional(nil, 0, kw, "start", int64(1))
	for _, it := range items {
		if acc, err = arith("*", acc, it); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
