// Package render substitutes {{...}} tokens in question templates with
// values from a sample and applies inline formatting to the result.
package render

import (
	"regexp"
	"strings"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/markup"
)

// tokenRe matches the shortest {{...}} span on a single line.
var tokenRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Render replaces each {{token}} in template. A token naming a sample key
// becomes that value; any other token is evaluated as an expression against
// the sample. Tokens that fail to evaluate are left as {{token}} with the
// surrounding whitespace trimmed. The substituted text is then passed
// through markup.Format.
func Render(template string, sample map[string]any) string {
	if template == "" {
		return ""
	}
	out := tokenRe.ReplaceAllStringFunc(template, func(m string) string {
		token := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := sample[token]; ok {
			return expr.Str(v)
		}
		v, ok := expr.Evaluate(token, sample)
		if !ok {
			return "{{" + token + "}}"
		}
		return expr.Str(v)
	})
	return markup.Format(out)
}

// HasTokens reports whether s contains both an opening and a closing marker.
func HasTokens(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

// EvaluateAnswer turns an answer key into display text. Keys with tokens are
// rendered; anything else is evaluated as a whole, falling back to the key
// itself when evaluation fails.
func EvaluateAnswer(expression string, sample map[string]any) string {
	if expression == "" {
		return ""
	}
	if HasTokens(expression) {
		return Render(expression, sample)
	}
	v, ok := expr.Evaluate(expression, sample)
	if !ok {
		return expression
	}
	return expr.Str(v)
}
