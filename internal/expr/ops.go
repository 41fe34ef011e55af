package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// maxRepeat caps sequence repetition and range sizes.
const maxRepeat = 1_000_000

var (
	errOverflow   = errors.New("integer overflow")
	errZeroDiv    = errors.New("division by zero")
	errTooLarge   = errors.New("result too large")
	errMathDomain = errors.New("math domain error")
)

func addInt(a, b int64) (int64, error) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, errOverflow
	}
	return c, nil
}

func subInt(a, b int64) (int64, error) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, errOverflow
	}
	return c, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errOverflow
	}
	c := a * b
	if c/b != a {
		return 0, errOverflow
	}
	return c, nil
}

func floorDivInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errZeroDiv
	}
	if a == math.MinInt64 && b == -1 {
		return 0, errOverflow
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q, nil
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errZeroDiv
	}
	if b == -1 {
		return 0, nil
	}
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, nil
}

func powInt(base, exp int64) (int64, error) {
	result := int64(1)
	for exp > 0 {
		var err error
		if exp&1 == 1 {
			if result, err = mulInt(result, base); err != nil {
				return 0, err
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, err = mulInt(base, base); err != nil {
				return 0, err
			}
		}
	}
	return result, nil
}

func floatMod(a, b float64) (float64, error) {
	if b == 0 {
		return 0, errZeroDiv
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, nil
}

func powFloat(a, b float64) (float64, error) {
	if a == 0 && b < 0 {
		return 0, errZeroDiv
	}
	if a < 0 && b != math.Trunc(b) {
		return 0, fmt.Errorf("negative number cannot be raised to a fractional power")
	}
	r := math.Pow(a, b)
	if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
		return 0, fmt.Errorf("numerical result out of range")
	}
	return r, nil
}

// arith applies a binary arithmetic or bitwise operator.
func arith(op string, a, b any) (any, error) {
	ai, af, aFloat, aNum := numeric(a)
	bi, bf, bFloat, bNum := numeric(b)
	if aNum && bNum {
		if !aFloat && !bFloat {
			return intArith(op, ai, bi)
		}
		if !aFloat {
			af = float64(ai)
		}
		if !bFloat {
			bf = float64(bi)
		}
		return floatArith(op, af, bf)
	}
	return seqArith(op, a, b)
}

func intArith(op string, a, b int64) (any, error) {
	switch op {
	case "+":
		return addInt(a, b)
	case "-":
		return subInt(a, b)
	case "*":
		return mulInt(a, b)
	case "/":
		if b == 0 {
			return nil, errZeroDiv
		}
		return float64(a) / float64(b), nil
	case "//":
		return floorDivInt(a, b)
	case "%":
		return modInt(a, b)
	case "**":
		if b < 0 {
			return powFloat(float64(a), float64(b))
		}
		return powInt(a, b)
	case "&":
		return a & b, nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "<<":
		if b < 0 {
			return nil, fmt.Errorf("negative shift count")
		}
		if a == 0 {
			return int64(0), nil
		}
		if b >= 63 || (a<<b)>>b != a {
			return nil, errOverflow
		}
		return a << b, nil
	case ">>":
		if b < 0 {
			return nil, fmt.Errorf("negative shift count")
		}
		if b >= 63 {
			if a < 0 {
				return int64(-1), nil
			}
			return int64(0), nil
		}
		return a >> b, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func floatArith(op string, a, b float64) (any, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, errZeroDiv
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, errZeroDiv
		}
		return math.Floor(a / b), nil
	case "%":
		return floatMod(a, b)
	case "**":
		return powFloat(a, b)
	}
	return nil, fmt.Errorf("unsupported operand type(s) for %s: 'float' and 'float'", op)
}

func seqArith(op string, a, b any) (any, error) {
	switch op {
	case "+":
		switch x := a.(type) {
		case string:
			if y, ok := b.(string); ok {
				if len(x)+len(y) > maxRepeat {
					return nil, errTooLarge
				}
				return x + y, nil
			}
		case List:
			if y, ok := b.(List); ok {
				return append(append(List{}, x...), y...), nil
			}
		case Tuple:
			if y, ok := b.(Tuple); ok {
				return append(append(Tuple{}, x...), y...), nil
			}
		}
	case "*":
		if n, ok := repeatCount(b); ok {
			return repeat(a, n)
		}
		if n, ok := repeatCount(a); ok {
			return repeat(b, n)
		}
	}
	return nil, fmt.Errorf("unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b))
}

func repeatCount(v any) (int64, bool) {
	i, _, isFloat, ok := numeric(v)
	if !ok || isFloat {
		return 0, false
	}
	return max(i, 0), true
}

func repeat(v any, n int64) (any, error) {
	switch t := v.(type) {
	case string:
		if len(t) > 0 && n > maxRepeat/int64(len(t)) {
			return nil, errTooLarge
		}
		return strings.Repeat(t, int(n)), nil
	case List:
		if n > maxRepeat/max(sizeOf(t, maxRepeat), 1) {
			return nil, errTooLarge
		}
		out := make(List, 0, len(t)*int(n))
		for range n {
			out = append(out, t...)
		}
		return out, nil
	case Tuple:
		if n > maxRepeat/max(sizeOf(t, maxRepeat), 1) {
			return nil, errTooLarge
		}
		out := make(Tuple, 0, len(t)*int(n))
		for range n {
			out = append(out, t...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("can't multiply sequence by non-int of type '%s'", typeName(v))
}

// sizeOf counts the scalars and string bytes reachable from v, descending
// into nested containers. Repeated references count once per occurrence.
// Counting stops once the total passes limit.
func sizeOf(v any, limit int64) int64 {
	var n int64
	addSize(v, &n, limit)
	return n
}

func addSize(v any, n *int64, limit int64) {
	if *n > limit {
		return
	}
	switch t := v.(type) {
	case string:
		*n += int64(len(t))
	case List:
		for _, e := range t {
			if addSize(e, n, limit); *n > limit {
				return
			}
		}
	case Tuple:
		for _, e := range t {
			if addSize(e, n, limit); *n > limit {
				return
			}
		}
	case *Dict:
		for i, k := range t.keys {
			addSize(k, n, limit)
			if addSize(t.vals[i], n, limit); *n > limit {
				return
			}
		}
	default:
		*n++
	}
}

func unary(op string, v any) (any, error) {
	i, f, isFloat, ok := numeric(v)
	if !ok {
		return nil, fmt.Errorf("bad operand type for unary %s: '%s'", op, typeName(v))
	}
	switch op {
	case "-":
		if isFloat {
			return -f, nil
		}
		if i == math.MinInt64 {
			return nil, errOverflow
		}
		return -i, nil
	case "+":
		if isFloat {
			return f, nil
		}
		return i, nil
	case "~":
		if isFloat {
			return nil, fmt.Errorf("bad operand type for unary ~: 'float'")
		}
		return ^i, nil
	}
	return nil, fmt.Errorf("unsupported unary operator %s", op)
}

// compareOp evaluates one link of a comparison chain.
func compareOp(op string, a, b any) (bool, error) {
	switch op {
	case "==":
		return equal(a, b), nil
	case "!=":
		return !equal(a, b), nil
	case "is":
		return identical(a, b), nil
	case "is not":
		return !identical(a, b), nil
	case "in":
		return contains(b, a)
	case "not in":
		ok, err := contains(b, a)
		return !ok, err
	}

	// Numbers compare directly so NaN orders false both ways.
	x, xNum := toFloat(a)
	y, yNum := toFloat(b)
	_, _, aFloat, _ := numeric(a)
	_, _, bFloat, _ := numeric(b)
	if xNum && yNum && (aFloat || bFloat) {
		switch op {
		case "<":
			return x < y, nil
		case "<=":
			return x <= y, nil
		case ">":
			return x > y, nil
		case ">=":
			return x >= y, nil
		}
	}

	c, err := compare(a, b)
	if err != nil {
		return false, fmt.Errorf("'%s' not supported between instances of '%s' and '%s'", op, typeName(a), typeName(b))
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, fmt.Errorf("unsupported comparison %s", op)
}

// identical approximates identity (is) for immutable values.
func identical(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case List, Tuple, *Dict:
		return false
	}
	return typeName(a) == typeName(b) && equal(a, b)
}

func contains(container, item any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	case List:
		return containsSeq(c, item), nil
	case Tuple:
		return containsSeq(c, item), nil
	case *Dict:
		_, ok := c.Get(item)
		return ok, nil
	}
	return false, fmt.Errorf("argument of type '%s' is not iterable", typeName(container))
}

func containsSeq(items []any, v any) bool {
	for _, e := range items {
		if equal(e, v) {
			return true
		}
	}
	return false
}

func index(x, idx any) (any, error) {
	if d, ok := x.(*Dict); ok {
		v, found := d.Get(idx)
		if !found {
			return nil, fmt.Errorf("key error: %s", repr(idx))
		}
		return v, nil
	}
	i, _, isFloat, ok := numeric(idx)
	if !ok || isFloat {
		return nil, fmt.Errorf("indices must be integers, not %s", typeName(idx))
	}
	switch t := x.(type) {
	case List:
		return seqIndex(t, i)
	case Tuple:
		return seqIndex(t, i)
	case string:
		runes := []rune(t)
		n := int64(len(runes))
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil, fmt.Errorf("string index out of range")
		}
		return string(runes[i]), nil
	}
	return nil, fmt.Errorf("'%s' object is not subscriptable", typeName(x))
}

func seqIndex(items []any, i int64) (any, error) {
	n := int64(len(items))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("index out of range")
	}
	return items[i], nil
}

func slice(x, lo, hi, step any) (any, error) {
	var n int64
	switch t := x.(type) {
	case List:
		n = int64(len(t))
	case Tuple:
		n = int64(len(t))
	case string:
		n = int64(len([]rune(t)))
	default:
		return nil, fmt.Errorf("'%s' object is not subscriptable", typeName(x))
	}

	st := int64(1)
	if step != nil {
		s, _, isFloat, ok := numeric(step)
		if !ok || isFloat {
			return nil, fmt.Errorf("slice indices must be integers or None")
		}
		if s == 0 {
			return nil, fmt.Errorf("slice step cannot be zero")
		}
		st = s
	}
	start, err := sliceBound(lo, n, st, true)
	if err != nil {
		return nil, err
	}
	stop, err := sliceBound(hi, n, st, false)
	if err != nil {
		return nil, err
	}

	var picked []int64
	if st > 0 {
		for i := start; i < stop; i += st {
			picked = append(picked, i)
		}
	} else {
		for i := start; i > stop; i += st {
			picked = append(picked, i)
		}
	}

	switch t := x.(type) {
	case List:
		out := make(List, 0, len(picked))
		for _, i := range picked {
			out = append(out, t[i])
		}
		return out, nil
	case Tuple:
		out := make(Tuple, 0, len(picked))
		for _, i := range picked {
			out = append(out, t[i])
		}
		return out, nil
	default:
		runes := []rune(x.(string))
		var b strings.Builder
		for _, i := range picked {
			b.WriteRune(runes[i])
		}
		return b.String(), nil
	}
}

// sliceBound clamps a slice index into the sequence bounds for the step direction.
func sliceBound(v any, n, step int64, isStart bool) (int64, error) {
	if v == nil {
		switch {
		case step > 0 && isStart:
			return 0, nil
		case step > 0:
			return n, nil
		case isStart:
			return n - 1, nil
		default:
			return -1, nil
		}
	}
	i, _, isFloat, ok := numeric(v)
	if !ok || isFloat {
		return 0, fmt.Errorf("slice indices must be integers or None")
	}
	if i < 0 {
		i += n
		if i < 0 {
			if step < 0 {
				return -1, nil
			}
			return 0, nil
		}
	}
	if i >= n {
		if step < 0 {
			return n - 1, nil
		}
		return n, nil
	}
	return i, nil
}
