package expr

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// List is an ordered, mutable-looking sequence value ([1, 2]).
type List []any

// Tuple is an ordered sequence value written as (1, 2).
type Tuple []any

// Dict is an insertion-ordered mapping. Keys must be hashable
// (None, bool, int, float, str, or a tuple of hashables).
type Dict struct {
	keys []any
	vals []any
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	if d == nil {
		return nil
	}
	return append([]any(nil), d.keys...)
}

// Get looks up key using value equality (1 == 1.0 == True).
func (d *Dict) Get(key any) (any, bool) {
	if d == nil {
		return nil, false
	}
	for i, k := range d.keys {
		if equal(k, key) {
			return d.vals[i], true
		}
	}
	return nil, false
}

// Set inserts or replaces key.
func (d *Dict) Set(key, val any) error {
	if !hashable(key) {
		return fmt.Errorf("unhashable type: '%s'", typeName(key))
	}
	for i, k := range d.keys {
		if equal(k, key) {
			d.vals[i] = val
			return nil
		}
	}
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, val)
	return nil
}

// MarshalJSON encodes d as an object in insertion order. Keys are
// written with Str.
func (d *Dict) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, k := range d.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(Str(k))
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(d.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

func hashable(v any) bool {
	switch t := v.(type) {
	case nil, bool, int64, float64, string:
		return true
	case Tuple:
		for _, e := range t {
			if !hashable(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// normalize maps host Go values onto the value set the evaluator works with.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint:
		if uint64(t) <= math.MaxInt64 {
			return int64(t)
		}
		return float64(t)
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case map[string]any:
		// Go maps carry no order; sorted keys keep results reproducible.
		d := NewDict()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			_ = d.Set(k, normalize(t[k]))
		}
		return d
	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case List:
		return "list"
	case Tuple:
		return "tuple"
	case *Dict:
		return "dict"
	case *Builtin:
		return "builtin_function_or_method"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Str renders v as display text: True/False, None, 1.0 for integral floats,
// and bracketed list, tuple and dict forms.
func Str(v any) string {
	v = normalize(v)
	if s, ok := v.(string); ok {
		return s
	}
	return repr(v)
}

func repr(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case string:
		return quote(t)
	case List:
		return "[" + joinRepr(t) + "]"
	case Tuple:
		if len(t) == 1 {
			return "(" + repr(t[0]) + ",)"
		}
		return "(" + joinRepr(t) + ")"
	case *Dict:
		parts := make([]string, 0, t.Len())
		for i, k := range t.keys {
			parts = append(parts, repr(k)+": "+repr(t.vals[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Builtin:
		return "<built-in function " + t.Name + ">"
	default:
		return fmt.Sprint(normalize(v))
	}
}

func joinRepr(items []any) string {
	parts := make([]string, len(items))
	for i, e := range items {
		parts[i] = repr(e)
	}
	return strings.Join(parts, ", ")
}

// quote prefers single quotes unless the string contains one and no double quotes.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// formatFloat writes shortest round-trip digits,
// fixed notation for exponents in [-4, 16), and a trailing ".0" for integral values.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case List:
		return len(t) > 0
	case Tuple:
		return len(t) > 0
	case *Dict:
		return t.Len() > 0
	default:
		return true
	}
}

// numeric unpacks bool/int/float operands. isFloat reports which field is valid.
func numeric(v any) (i int64, f float64, isFloat, ok bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, 0, false, true
		}
		return 0, 0, false, true
	case int64:
		return t, 0, false, true
	case float64:
		return 0, t, true, true
	}
	return 0, 0, false, false
}

func toFloat(v any) (float64, bool) {
	i, f, isFloat, ok := numeric(v)
	if !ok {
		return 0, false
	}
	if isFloat {
		return f, true
	}
	return float64(i), true
}

func equal(a, b any) bool {
	ai, _, aFloat, aNum := numeric(a)
	bi, _, bFloat, bNum := numeric(b)
	if aNum && bNum {
		if !aFloat && !bFloat {
			return ai == bi
		}
		x, _ := toFloat(a)
		y, _ := toFloat(b)
		return x == y
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case List:
		y, ok := b.(List)
		return ok && seqEqual(x, y)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && seqEqual(x, y)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, found := y.Get(k)
			if !found || !equal(x.vals[i], v) {
				return false
			}
		}
		return true
	case *Builtin:
		y, ok := b.(*Builtin)
		return ok && x == y
	}
	return false
}

func seqEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// compare orders two values; it fails for mixed or unordered types.
func compare(a, b any) (int, error) {
	ai, _, aFloat, aNum := numeric(a)
	bi, _, bFloat, bNum := numeric(b)
	if aNum && bNum {
		if !aFloat && !bFloat {
			return cmpInt(ai, bi), nil
		}
		x, _ := toFloat(a)
		y, _ := toFloat(b)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		// Equal or unordered (NaN).
		return 0, nil
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case List:
		if y, ok := b.(List); ok {
			return compareSeq(x, y)
		}
	case Tuple:
		if y, ok := b.(Tuple); ok {
			return compareSeq(x, y)
		}
	}
	return 0, fmt.Errorf("'<' not supported between instances of '%s' and '%s'", typeName(a), typeName(b))
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareSeq(a, b []any) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if equal(a[i], b[i]) {
			continue
		}
		return compare(a[i], b[i])
	}
	return cmpInt(int64(len(a)), int64(len(b))), nil
}

// iterate returns the elements of a list, tuple, dict (keys) or string.
func iterate(v any) ([]any, error) {
	switch t := v.(type) {
	case List:
		return t, nil
	case Tuple:
		return t, nil
	case *Dict:
		return t.Keys(), nil
	case string:
		out := make([]any, 0, len(t))
		for _, r := range t {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, fmt.Errorf("'%s' object is not iterable", typeName(v))
}
