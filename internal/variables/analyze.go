package variables

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/render"
)

// Analysis is the static dependency graph of a Set. It does not affect
// generation; it explains why a variable may end up Unresolved.
type Analysis struct {
	// Order lists variables so that each comes after everything it
	// references. Variables on a cycle are left out.
	Order []string

	// Deps maps a variable to the declared variables it references.
	Deps map[string][]string

	// Undefined maps a variable to referenced names that are neither
	// declared nor builtin.
	Undefined map[string][]string

	// Cycle lists variables that are part of, or depend on, a cycle.
	Cycle []string

	// Problems holds every issue found, one per entry.
	Problems []string
}

// Analyze builds the dependency graph of set and checks each rule.
func Analyze(set *Set) Analysis {
	a := Analysis{
		Deps:      make(map[string][]string),
		Undefined: make(map[string][]string),
	}
	names := set.Names()
	declared := make(map[string]bool, len(names))
	for _, n := range names {
		declared[n] = true
	}

	for _, name := range names {
		rule, _ := set.Get(name)
		refs, strict, err := references(rule)
		if err != nil {
			a.Problems = append(a.Problems, fmt.Sprintf("variable %q: %v", name, err))
		}
		for _, ref := range refs {
			switch {
			case declared[ref]:
				if !slices.Contains(a.Deps[name], ref) {
					a.Deps[name] = append(a.Deps[name], ref)
				}
			case expr.IsBuiltin(ref):
			case strict:
				if !slices.Contains(a.Undefined[name], ref) {
					a.Undefined[name] = append(a.Undefined[name], ref)
					a.Problems = append(a.Problems, fmt.Sprintf("variable %q references undefined name %q", name, ref))
				}
			}
		}
		a.Problems = append(a.Problems, checkRule(name, rule)...)
	}

	a.Order, a.Cycle = topoOrder(names, a.Deps)
	if len(a.Cycle) > 0 {
		a.Problems = append(a.Problems, fmt.Sprintf("cycle detected involving variables: %s", strings.Join(a.Cycle, ", ")))
	}
	return a
}

// Err combines all problems into one error, or returns nil.
func (a Analysis) Err() error {
	if len(a.Problems) == 0 {
		return nil
	}
	return fmt.Errorf("variable analysis failed:\n  %s", strings.Join(a.Problems, "\n  "))
}

// references returns the names a rule reads. strict reports whether an
// unknown name is an error; custom text that is not a template may be
// literal prose.
func references(rule Rule) (refs []string, strict bool, err error) {
	d := rule.RuleData
	switch rule.Kind() {
	case MathExpression:
		if strings.TrimSpace(d.Expression) == "" {
			return nil, true, fmt.Errorf("expression is empty")
		}
		refs, err = expr.Names(d.Expression)
		if err != nil {
			return nil, true, fmt.Errorf("invalid expression: %w", err)
		}
		return refs, true, nil
	case Custom:
		if !render.HasTokens(d.Description) {
			if refs, err = expr.Names(d.Description); err != nil {
				return nil, false, nil
			}
			return refs, false, nil
		}
		for _, m := range refRe.FindAllStringSubmatch(d.Description, -1) {
			token := strings.TrimSpace(m[1])
			names, err := expr.Names(token)
			if err != nil {
				// A key like "my var" is valid by exact match only.
				refs = append(refs, token)
				continue
			}
			refs = append(refs, names...)
		}
		return refs, true, nil
	}
	return nil, false, nil
}

// checkRule reports payload problems that make a rule always fail.
func checkRule(name string, rule Rule) []string {
	d := rule.RuleData
	var problems []string
	switch rule.Kind() {
	case RandomNumber:
		lo, errLo := intParam(d.Min, 1)
		hi, errHi := intParam(d.Max, 10)
		_, errStep := intParam(d.Step, 1)
		for field, err := range map[string]error{"min": errLo, "max": errHi, "step": errStep} {
			if err != nil {
				problems = append(problems, fmt.Sprintf("variable %q: %s is not an integer", name, field))
			}
		}
		slices.Sort(problems)
		if errLo == nil && errHi == nil && lo > hi {
			problems = append(problems, fmt.Sprintf("variable %q: min %d is greater than max %d", name, lo, hi))
		}
	case RandomChoice:
		if len(d.Choices) == 0 {
			problems = append(problems, fmt.Sprintf("variable %q: no choices", name))
		}
	case MathExpression, Custom:
	default:
		problems = append(problems, fmt.Sprintf("variable %q: unknown rule type %q", name, d.Type))
	}
	return problems
}

// topoOrder is Kahn's algorithm with ties broken by declaration order.
func topoOrder(names []string, deps map[string][]string) (order, cycle []string) {
	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string)
	for _, n := range names {
		for _, d := range deps[n] {
			inDegree[n]++
			if d != n {
				dependents[d] = append(dependents[d], n)
			}
		}
	}

	done := make(map[string]bool, len(names))
	for {
		progressed := false
		for _, n := range names {
			if done[n] || inDegree[n] > 0 {
				continue
			}
			done[n] = true
			order = append(order, n)
			for _, dep := range dependents[n] {
				inDegree[dep]--
			}
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	for _, n := range names {
		if !done[n] {
			cycle = append(cycle, n)
		}
	}
	return order, cycle
}
