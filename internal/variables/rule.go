// Package variables defines template variables, the rules that produce
// their values, and the generator that turns a set of rules into samples.
package variables

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/abhisek/quizmaker/internal/expr"
)

// RuleType selects how a variable's value is produced.
type RuleType string

const (
	RandomNumber   RuleType = "random_number"
	RandomChoice   RuleType = "random_choice"
	MathExpression RuleType = "math_expression"
	Custom         RuleType = "custom"
)

// Display labels used by the editor for each rule type.
var ruleLabels = map[RuleType]string{
	RandomNumber:   "Random Number",
	RandomChoice:   "Random Choice",
	MathExpression: "Math Expression",
	Custom:         "Custom",
}

// Label returns the editor label for t, or t itself when unknown.
func (t RuleType) Label() string {
	if l, ok := ruleLabels[t]; ok {
		return l
	}
	return string(t)
}

// Rule is a single variable definition as stored in template exports.
type Rule struct {
	// RuleType is the display label ("Random Number", ...). Informational.
	RuleType string `json:"rule_type"`

	// RuleDescription is a short human summary ("1..10 step 1").
	RuleDescription string `json:"rule_description"`

	RuleData RuleData `json:"rule_data"`
}

// Kind returns the rule's type, defaulting to Custom.
func (r Rule) Kind() RuleType {
	if r.RuleData.Type == "" {
		return Custom
	}
	return r.RuleData.Type
}

// RuleData is the payload of a rule. Only the fields belonging to Type are
// read; the rest are ignored.
type RuleData struct {
	Type RuleType

	// RandomNumber bounds. Values may be numbers or numeric strings and are
	// converted with int() semantics; nil means the default.
	Min, Max, Step any

	// RandomChoice domain. Elements keep their JSON type.
	Choices []any

	// MathExpression source.
	Expression string

	// Custom description: a template, an expression, or literal text.
	Description string
}

// NewRandomNumber builds a RandomNumber rule.
func NewRandomNumber(lo, hi, step int64) Rule {
	return Rule{
		RuleType:        RandomNumber.Label(),
		RuleDescription: fmt.Sprintf("%d..%d step %d", lo, hi, step),
		RuleData:        RuleData{Type: RandomNumber, Min: lo, Max: hi, Step: step},
	}
}

// NewRandomChoice builds a RandomChoice rule over string choices.
func NewRandomChoice(choices ...string) Rule {
	items := make([]any, len(choices))
	for i, c := range choices {
		items[i] = c
	}
	return Rule{
		RuleType:        RandomChoice.Label(),
		RuleDescription: fmt.Sprintf("%d choices", len(choices)),
		RuleData:        RuleData{Type: RandomChoice, Choices: items},
	}
}

// NewMathExpression builds a MathExpression rule.
func NewMathExpression(expression string) Rule {
	return Rule{
		RuleType:        MathExpression.Label(),
		RuleDescription: expression,
		RuleData:        RuleData{Type: MathExpression, Expression: expression},
	}
}

// NewCustom builds a Custom rule.
func NewCustom(description string) Rule {
	return Rule{
		RuleType:        Custom.Label(),
		RuleDescription: description,
		RuleData:        RuleData{Type: Custom, Description: description},
	}
}

// MarshalJSON writes only the fields of the active variant.
func (d RuleData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	field := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		fmt.Fprintf(&buf, "%q:", key)
		buf.Write(b)
		return nil
	}

	if d.Type != "" {
		if err := field("type", d.Type); err != nil {
			return nil, err
		}
	}
	var err error
	switch d.Type {
	case RandomNumber:
		for _, kv := range []struct {
			k string
			v any
		}{{"min", d.Min}, {"max", d.Max}, {"step", d.Step}} {
			if kv.v != nil && err == nil {
				err = field(kv.k, kv.v)
			}
		}
	case RandomChoice:
		choices := d.Choices
		if choices == nil {
			choices = []any{}
		}
		err = field("choices", choices)
	case MathExpression:
		err = field("expression", d.Expression)
	case Custom, "":
		err = field("description", d.Description)
	default:
		if d.Description != "" {
			err = field("description", d.Description)
		}
	}
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes numbers as int64 when they are integral literals
// and float64 otherwise.
func (d *RuleData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := RuleData{}
	if t, ok := raw["type"].(string); ok {
		out.Type = RuleType(t)
	}
	out.Min = jsonValue(raw["min"])
	out.Max = jsonValue(raw["max"])
	out.Step = jsonValue(raw["step"])
	if cs, ok := raw["choices"].([]any); ok {
		out.Choices = make([]any, len(cs))
		for i, c := range cs {
			out.Choices[i] = jsonValue(c)
		}
	}
	out.Expression = textValue(raw["expression"])
	out.Description = textValue(raw["description"])
	*d = out
	return nil
}

// jsonValue converts json.Number leaves to int64 or float64.
func jsonValue(v any) any {
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
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonValue(e)
		}
		return out
	}
	return v
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return expr.Str(jsonValue(v))
}
