package question

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/variables"
)

// VariablesValidator reports the problems found by variables.Analyze:
// bad rule payloads, undefined references and cycles.
type VariablesValidator struct{}

func (v *VariablesValidator) Name() string { return "variables" }

func (v *VariablesValidator) Validate(doc *Document) []*ValidationError {
	var errs []*ValidationError
	for _, p := range variables.Analyze(doc.Variables).Problems {
		errs = append(errs, &ValidationError{Validator: v.Name(), Message: p})
	}
	return errs
}

// TokenValidator checks that every {{...}} token in the question text,
// options, answer key and comment parses and names only declared
// variables or builtins.
type TokenValidator struct{}

func (v *TokenValidator) Name() string { return "tokens" }

var tokenRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

func (v *TokenValidator) Validate(doc *Document) []*ValidationError {
	declared := make(map[string]bool)
	for _, n := range doc.Variables.Names() {
		declared[n] = true
	}

	var errs []*ValidationError
	for _, f := range textFields(doc) {
		for _, m := range tokenRe.FindAllStringSubmatch(f.text, -1) {
			token := strings.TrimSpace(m[1])
			if declared[token] {
				continue
			}
			names, err := expr.Names(token)
			if err != nil {
				errs = append(errs, &ValidationError{
					Validator: v.Name(),
					Message:   fmt.Sprintf("%s: token %s does not parse: %v", f.where, m[0], err),
				})
				continue
			}
			for _, n := range names {
				if declared[n] || expr.IsBuiltin(n) {
					continue
				}
				errs = append(errs, &ValidationError{
					Validator: v.Name(),
					Message:   fmt.Sprintf("%s: token %s references undefined name %q", f.where, m[0], n),
				})
			}
		}
	}
	return errs
}

type textField struct {
	where string
	text  string
}

// textFields lists the rendered fields of doc for its question type.
func textFields(doc *Document) []textField {
	fields := []textField{{"template", doc.Template}}
	spec := doc.TemplateData
	switch spec.Kind() {
	case MultipleChoice:
		for i, opt := range spec.Options {
			fields = append(fields, textField{fmt.Sprintf("option %d", i+1), opt})
		}
	case Open:
		fields = append(fields, textField{"answer_key", spec.AnswerKey})
	}
	if spec.IncludeGeneral {
		fields = append(fields, textField{"general_comment", spec.GeneralComment})
	}
	return fields
}

// RenderCheckValidator generates a few seeded samples and reports
// variables that stay unresolved and tokens left in the rendered text.
type RenderCheckValidator struct {
	// Samples is the number of samples to try. Zero means one.
	Samples int
}

func (v *RenderCheckValidator) Name() string { return "render-check" }

func (v *RenderCheckValidator) Validate(doc *Document) []*ValidationError {
	n := max(v.Samples, 1)
	unresolved := make(map[string]int)
	var leftovers []string

	for i := range n {
		sample := variables.NewGenerator(variables.WithSeed(uint64(i + 1))).Generate(doc.Variables)
		for name, val := range sample {
			if isUnresolved(val) {
				unresolved[name]++
			}
		}
		q := Render(doc.Template, doc.TemplateData, sample)
		texts := append([]string{q.Text, q.Answer, q.Comment}, q.Options...)
		for _, t := range texts {
			for _, m := range tokenRe.FindAllString(t, -1) {
				if !slices.Contains(leftovers, m) {
					leftovers = append(leftovers, m)
				}
			}
		}
	}

	var errs []*ValidationError
	for _, name := range doc.Variables.Names() {
		if c := unresolved[name]; c > 0 {
			errs = append(errs, &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("variable %q unresolved in %d of %d samples", name, c, n),
			})
		}
	}
	for _, tok := range leftovers {
		errs = append(errs, &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("rendered text still contains %s", tok),
		})
	}
	return errs
}
