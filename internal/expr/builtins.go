package expr

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Builtin is a callable exposed to expressions.
type Builtin struct {
	Name   string
	kwargs []string
	// anyKwargs accepts arbitrary keyword arguments (dict).
	anyKwargs bool
	fn        func(args []any, kw map[string]any) (any, error)
}

func (b *Builtin) invoke(args []any, kw map[string]any) (any, error) {
	for k := range kw {
		if !b.anyKwargs && !slices.Contains(b.kwargs, k) {
			return nil, fmt.Errorf("%s() got an unexpected keyword argument '%s'", b.Name, k)
		}
	}
	v, err := b.fn(args, kw)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", b.Name, err)
	}
	return v, nil
}

// coreBuiltins win over context variables; mathBuiltins lose to them.
var (
	coreBuiltins = map[string]*Builtin{}
	mathBuiltins = map[string]any{}
)

func init() {
	core := []*Builtin{
		{Name: "int", kwargs: []string{"base"}, fn: builtinInt},
		{Name: "float", fn: builtinFloat},
		{Name: "str", fn: builtinStr},
		{Name: "bin", fn: radix("0b", 2)},
		{Name: "hex", fn: radix("0x", 16)},
		{Name: "oct", fn: radix("0o", 8)},
		{Name: "round", kwargs: []string{"ndigits"}, fn: builtinRound},
		{Name: "abs", fn: builtinAbs},
		{Name: "pow", kwargs: []string{"base", "exp", "mod"}, fn: builtinPow},
		{Name: "sum", kwargs: []string{"start"}, fn: builtinSum},
		{Name: "min", kwargs: []string{"default"}, fn: extreme(-1)},
		{Name: "max", kwargs: []string{"default"}, fn: extreme(1)},
		{Name: "len", fn: builtinLen},
		{Name: "sorted", kwargs: []string{"reverse"}, fn: builtinSorted},
		{Name: "range", fn: builtinRange},
		{Name: "list", fn: builtinList},
		{Name: "tuple", fn: builtinTuple},
		{Name: "dict", anyKwargs: true, fn: builtinDict},
		{Name: "select", kwargs: []string{"default"}, fn: builtinSelect},
		{Name: "case", kwargs: []string{"default"}, fn: builtinSelect},
	}
	for _, b := range core {
		coreBuiltins[b.Name] = b
	}
	registerMath()
}

func arity(args []any, lo, hi int) error {
	switch {
	case len(args) < lo:
		return fmt.Errorf("expected at least %d arguments, got %d", lo, len(args))
	case hi >= 0 && len(args) > hi:
		return fmt.Errorf("expected at most %d arguments, got %d", hi, len(args))
	}
	return nil
}

func intArg(v any) (int64, error) {
	i, _, isFloat, ok := numeric(v)
	if !ok || isFloat {
		return 0, fmt.Errorf("'%s' object cannot be interpreted as an integer", typeName(v))
	}
	return i, nil
}

func floatArg(v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("must be real number, not %s", typeName(v))
	}
	return f, nil
}

// optional returns the positional argument at i, else the keyword value, else def.
func optional(args []any, i int, kw map[string]any, name string, def any) any {
	if i < len(args) {
		return args[i]
	}
	if v, ok := kw[name]; ok {
		return v
	}
	return def
}

func builtinInt(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 0, 2); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return int64(0), nil
	}
	if base := optional(args, 1, kw, "base", nil); base != nil {
		b, err := intArg(base)
		if err != nil {
			return nil, err
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("can't convert non-string with explicit base")
		}
		return parseIntBase(s, int(b))
	}
	switch t := args[0].(type) {
	case bool, int64:
		i, _, _, _ := numeric(t)
		return i, nil
	case float64:
		return floatToInt(t)
	case string:
		return parseIntBase(t, 10)
	}
	return nil, fmt.Errorf("argument must be a string or a number, not '%s'", typeName(args[0]))
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot convert float %s to integer", formatFloat(f))
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, errOverflow
	}
	return int64(t), nil
}

// parseIntBase follows int(s, base): base 0 infers the base from a prefix,
// other bases accept their own optional prefix and leading zeros.
func parseIntBase(s string, base int) (int64, error) {
	invalid := fmt.Errorf("invalid literal for int() with base %d: %s", base, quote(s))
	if base != 0 && (base < 2 || base > 36) {
		return 0, fmt.Errorf("int() base must be >= 2 and <= 36, or 0")
	}
	t := strings.TrimSpace(s)
	if base == 0 {
		n, ok := parseIntLiteral(t)
		if !ok {
			return 0, invalid
		}
		return n, nil
	}

	neg := false
	if t != "" && (t[0] == '+' || t[0] == '-') {
		neg = t[0] == '-'
		t = t[1:]
	}
	if len(t) > 2 && t[0] == '0' {
		prefix := map[int]byte{16: 'x', 8: 'o', 2: 'b'}[base]
		if prefix != 0 && (t[1]|0x20) == prefix {
			t = strings.TrimPrefix(t[2:], "_")
		}
	}
	if !validDigits(t, base) {
		return 0, invalid
	}
	u, err := strconv.ParseUint(strings.ReplaceAll(t, "_", ""), base, 64)
	if err != nil {
		return 0, errOverflow
	}
	if neg {
		if u > 1<<63 {
			return 0, errOverflow
		}
		return int64(-u), nil
	}
	if u > math.MaxInt64 {
		return 0, errOverflow
	}
	return int64(u), nil
}

func builtinFloat(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return 0.0, nil
	}
	if s, ok := args[0].(string); ok {
		f, ok := parseFloatLiteral(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("could not convert string to float: %s", quote(s))
		}
		return f, nil
	}
	return floatArg(args[0])
}

func builtinStr(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return "", nil
	}
	return Str(args[0]), nil
}

func radix(prefix string, base int) func([]any, map[string]any) (any, error) {
	return func(args []any, _ map[string]any) (any, error) {
		if err := arity(args, 1, 1); err != nil {
			return nil, err
		}
		i, err := intArg(args[0])
		if err != nil {
			return nil, err
		}
		sign := ""
		u := uint64(i)
		if i < 0 {
			sign = "-"
			u = uint64(-(i + 1)) + 1
		}
		return sign + prefix + strconv.FormatUint(u, base), nil
	}
}

func builtinRound(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 1, 2); err != nil {
		return nil, err
	}
	nd := optional(args, 1, kw, "ndigits", nil)
	i, f, isFloat, ok := numeric(args[0])
	if !ok {
		return nil, fmt.Errorf("type %s doesn't define __round__ method", typeName(args[0]))
	}

	if nd == nil {
		if !isFloat {
			return i, nil
		}
		return floatToInt(math.RoundToEven(f))
	}
	n, err := intArg(nd)
	if err != nil {
		return nil, err
	}
	if !isFloat {
		return roundIntDigits(i, n)
	}
	return roundFloatDigits(f, n), nil
}

// roundIntDigits rounds to a multiple of 10**-n, halves to even.
func roundIntDigits(i, n int64) (int64, error) {
	if n >= 0 {
		return i, nil
	}
	if n < -18 {
		return 0, nil
	}
	p, _ := powInt(10, -n)
	q, _ := floorDivInt(i, p)
	r := i - q*p
	switch {
	case 2*r > p, 2*r == p && q%2 != 0:
		q++
	}
	return mulInt(q, p)
}

func roundFloatDigits(f float64, n int64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	if n > 0 {
		if n > 308 {
			return f
		}
		// strconv rounds the exact binary value.
		r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', int(n), 64), 64)
		if err != nil {
			return f
		}
		return r
	}
	p := math.Pow(10, float64(-n))
	return math.RoundToEven(f/p) * p
}

func builtinAbs(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	i, f, isFloat, ok := numeric(args[0])
	if !ok {
		return nil, fmt.Errorf("bad operand type for abs(): '%s'", typeName(args[0]))
	}
	if isFloat {
		return math.Abs(f), nil
	}
	if i == math.MinInt64 {
		return nil, errOverflow
	}
	if i < 0 {
		return -i, nil
	}
	return i, nil
}

func builtinPow(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 0, 3); err != nil {
		return nil, err
	}
	base := optional(args, 0, kw, "base", nil)
	exp := optional(args, 1, kw, "exp", nil)
	if base == nil || exp == nil {
		return nil, fmt.Errorf("missing required argument")
	}
	mod := optional(args, 2, kw, "mod", nil)
	if mod == nil {
		return arith("**", base, exp)
	}

	b, err := intArg(base)
	if err != nil {
		return nil, err
	}
	e, err := intArg(exp)
	if err != nil {
		return nil, err
	}
	m, err := intArg(mod)
	if err != nil {
		return nil, err
	}
	if m == 0 {
		return nil, fmt.Errorf("pow() 3rd argument cannot be 0")
	}
	if e < 0 {
		return nil, fmt.Errorf("pow() 2nd argument cannot be negative when 3rd argument specified")
	}
	r := new(big.Int).Exp(big.NewInt(b), big.NewInt(e), new(big.Int).Abs(big.NewInt(m)))
	// The result takes the sign of the modulus.
	res, _ := modInt(r.Int64(), m)
	return res, nil
}

func builtinSum(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 1, 2); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	acc := optional(args, 1, kw, "start", int64(0))
	if _, ok := acc.(string); ok {
		return nil, fmt.Errorf("can't sum strings")
	}
	for _, it := range items {
		if acc, err = arith("+", acc, it); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// extreme implements min (sign -1) and max (sign 1).
func extreme(sign int) func([]any, map[string]any) (any, error) {
	return func(args []any, kw map[string]any) (any, error) {
		if err := arity(args, 1, -1); err != nil {
			return nil, err
		}
		items := args
		if len(args) == 1 {
			var err error
			if items, err = iterate(args[0]); err != nil {
				return nil, err
			}
		} else if _, ok := kw["default"]; ok {
			return nil, fmt.Errorf("cannot specify a default with multiple positional arguments")
		}
		if len(items) == 0 {
			if d, ok := kw["default"]; ok {
				return d, nil
			}
			return nil, fmt.Errorf("arg is an empty sequence")
		}
		best := items[0]
		for _, it := range items[1:] {
			c, err := compare(it, best)
			if err != nil {
				return nil, err
			}
			if c*sign > 0 {
				best = it
			}
		}
		return best, nil
	}
}

func builtinLen(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	switch t := args[0].(type) {
	case string:
		return int64(len([]rune(t))), nil
	case List:
		return int64(len(t)), nil
	case Tuple:
		return int64(len(t)), nil
	case *Dict:
		return int64(t.Len()), nil
	}
	return nil, fmt.Errorf("object of type '%s' has no len()", typeName(args[0]))
}

func builtinSorted(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 1, 1); err != nil {
		return nil, err
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := append(List{}, items...)
	reverse := truthy(kw["reverse"])
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compare(out[i], out[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

func builtinRange(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 1, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := intArg(a)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}
	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) >= 2 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("range() arg 3 must not be zero")
	}
	return rangeValues(start, stop, step)
}

func rangeValues(start, stop, step int64) (List, error) {
	var n int64
	switch {
	case step > 0 && start < stop:
		n = (stop-start-1)/step + 1
	case step < 0 && start > stop:
		n = (start-stop-1)/(-step) + 1
	}
	if n > maxRepeat || n < 0 {
		return nil, errTooLarge
	}
	out := make(List, n)
	v := start
	for i := range out {
		out[i] = v
		v += step
	}
	return out, nil
}

func builtinList(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return List{}, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return append(List{}, items...), nil
}

func builtinTuple(args []any, _ map[string]any) (any, error) {
	if err := arity(args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Tuple{}, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return append(Tuple{}, items...), nil
}

// builtinDict accepts a mapping or pairs, then keyword entries.
func builtinDict(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		if src, ok := args[0].(*Dict); ok {
			for i, k := range src.keys {
				_ = d.Set(k, src.vals[i])
			}
		} else {
			items, err := iterate(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				pair, err := iterate(it)
				if err != nil || len(pair) != 2 {
					return nil, fmt.Errorf("dictionary update sequence element has wrong length")
				}
				if err := d.Set(pair[0], pair[1]); err != nil {
					return nil, err
				}
			}
		}
	}
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = d.Set(k, kw[k])
	}
	return d, nil
}

// builtinSelect looks key up in a dict or a sequence of (key, value) pairs.
func builtinSelect(args []any, kw map[string]any) (any, error) {
	if err := arity(args, 2, 3); err != nil {
		return nil, err
	}
	key, mapping := args[0], args[1]
	def := optional(args, 2, kw, "default", nil)
	switch m := mapping.(type) {
	case nil:
		return def, nil
	case *Dict:
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		return def, nil
	}
	items, err := iterate(mapping)
	if err != nil {
		return def, nil
	}
	for _, it := range items {
		pair, err := iterate(it)
		if err != nil || len(pair) != 2 {
			return def, nil
		}
		if equal(pair[0], key) {
			return pair[1], nil
		}
	}
	return def, nil
}

// ToInt converts v the way int(v) does inside an expression.
func ToInt(v any) (int64, error) {
	r, err := builtinInt([]any{normalize(v)}, nil)
	if err != nil {
		return 0, err
	}
	return r.(int64), nil
}
