// Package question turns a template and its question settings into
// rendered questions, and reads and writes the template and samples
// export files.
package question

import (
	"encoding/json"
	"math"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/render"
	"github.com/abhisek/quizmaker/internal/variables"
)

// Type is the kind of question a template produces.
type Type string

const (
	MultipleChoice Type = "mc"
	TrueFalse      Type = "tf"
	Open           Type = "open"
)

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Open:
		return true
	}
	return false
}

// Spec holds the answer settings of a template (the "template_data"
// object of an export).
type Spec struct {
	Type    Type     `json:"type,omitempty"`
	Options []string `json:"options,omitempty"`

	// Correct is the option index for multiple choice and "True" or
	// "False" for true/false questions.
	Correct any `json:"correct,omitempty"`

	// AnswerKey is the open question answer: a template or an expression.
	AnswerKey string `json:"answer_key,omitempty"`

	GeneralComment string `json:"general_comment,omitempty"`
	IncludeGeneral bool   `json:"include_general,omitempty"`
}

// Kind returns the question type, defaulting to Open.
func (s Spec) Kind() Type {
	if s.Type == "" {
		return Open
	}
	return s.Type
}

// CorrectIndex returns the correct option index for a multiple choice
// question, or -1 when Correct is not an integer.
func (s Spec) CorrectIndex() int {
	switch c := s.Correct.(type) {
	case nil:
		return 0
	case int:
		return c
	case int64:
		return int(c)
	case float64:
		if c == math.Trunc(c) && !math.IsInf(c, 0) {
			return int(c)
		}
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return int(n)
		}
	}
	return -1
}

// CorrectTF returns "True" or "False" for a true/false question. Anything
// other than "True" (or boolean true) counts as "False".
func (s Spec) CorrectTF() string {
	switch c := s.Correct.(type) {
	case nil:
		return "True"
	case bool:
		if c {
			return "True"
		}
	case string:
		if c == "True" {
			return "True"
		}
	}
	return "False"
}

// Rendered is one question instance produced from a sample.
type Rendered struct {
	Type    Type     `json:"type"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`

	// Correct is the index of the correct option, or -1.
	Correct int `json:"correct"`

	// Answer is the correct option text, "True"/"False", or the open
	// answer. Empty when an open question has no answer key.
	Answer string `json:"answer"`

	Comment string `json:"comment,omitempty"`
}

// Render produces the question for one sample.
func Render(template string, spec Spec, sample variables.Sample) Rendered {
	r := Rendered{
		Type:    spec.Kind(),
		Text:    render.Render(template, sample),
		Correct: -1,
	}
	switch r.Type {
	case MultipleChoice:
		r.Options = make([]string, len(spec.Options))
		for i, opt := range spec.Options {
			r.Options[i] = render.Render(opt, sample)
		}
		if idx := spec.CorrectIndex(); idx >= 0 && idx < len(r.Options) {
			r.Correct = idx
			r.Answer = r.Options[idx]
		}
	case TrueFalse:
		r.Answer = spec.CorrectTF()
		if r.Answer == "True" {
			r.Correct = 0
		} else {
			r.Correct = 1
		}
	default:
		r.Answer = render.EvaluateAnswer(spec.AnswerKey, sample)
	}
	if spec.IncludeGeneral && spec.GeneralComment != "" {
		r.Comment = render.Render(spec.GeneralComment, sample)
	}
	return r
}

// RenderAll renders one question per sample.
func RenderAll(template string, spec Spec, samples []variables.Sample) []Rendered {
	out := make([]Rendered, len(samples))
	for i, s := range samples {
		out[i] = Render(template, spec, s)
	}
	return out
}

// isUnresolved reports whether v is a placeholder rather than a value.
func isUnresolved(v any) bool {
	s, ok := v.(string)
	return ok && (s == variables.Unresolved || s == expr.ErrSentinel)
}
