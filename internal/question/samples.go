package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/variables"
)

// EncodeSamples writes samples as a JSON array indented with two spaces.
// Non-finite floats are written as their text form ("inf", "nan").
func EncodeSamples(samples []variables.Sample) ([]byte, error) {
	out := make([]map[string]any, len(samples))
	for i, s := range samples {
		m := make(map[string]any, len(s))
		for k, v := range s {
			m[k] = JSONValue(v)
		}
		out[i] = m
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}
	return data, nil
}

// DecodeSamples reads a samples export. Integral numbers become int64 and
// other numbers float64.
func DecodeSamples(data []byte) ([]variables.Sample, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	out := make([]variables.Sample, len(raw))
	for i, m := range raw {
		s := make(variables.Sample, len(m))
		for k, v := range m {
			s[k] = numberValue(v)
		}
		out[i] = s
	}
	return out, nil
}

// DecodeSample reads a single sample object with the same number rules as
// DecodeSamples. null decodes to an empty sample.
func DecodeSample(data []byte) (variables.Sample, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	s := make(variables.Sample, len(raw))
	for k, v := range raw {
		s[k] = numberValue(v)
	}
	return s, nil
}

// JSONValue converts a sample value into something encoding/json accepts.
func JSONValue(v any) any {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return expr.Str(t)
		}
	case expr.List:
		return jsonSlice(t)
	case expr.Tuple:
		return jsonSlice(t)
	case []any:
		return jsonSlice(t)
	case *expr.Dict:
		d := expr.NewDict()
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			_ = d.Set(k, JSONValue(val))
		}
		return d
	}
	return v
}

func jsonSlice(items []any) []any {
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = JSONValue(e)
	}
	return out
}

func numberValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i, e := range t {
			t[i] = numberValue(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = numberValue(e)
		}
		return t
	}
	return v
}
