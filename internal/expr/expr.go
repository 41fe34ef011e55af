// Package expr implements the sandboxed expression language used by
// question templates: a small Python-flavoured grammar evaluated against a
// sample of variable values. There is no attribute access, assignment or
// import; the only callables are the builtins registered in this package.
package expr

import (
	"fmt"
	"strings"
)

// ErrSentinel is returned by Evaluate when an expression cannot be evaluated.
const ErrSentinel = "<err>"

// Eval parses and evaluates expression with ctx bound as variables.
// Every context value is passed through Coerce first.
func Eval(expression string, ctx map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("evaluate %q: %v", expression, r)
		}
	}()

	n, err := parse(strings.TrimSpace(expression))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expression, err)
	}
	vars := make(map[string]any, len(ctx))
	for k, v := range ctx {
		vars[k] = Coerce(v)
	}
	ev := &evaluator{vars: vars}
	v, err := ev.eval(n)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return v, nil
}

// Evaluate is Eval without diagnostics: on failure it returns
// (ErrSentinel, false).
func Evaluate(expression string, ctx map[string]any) (any, bool) {
	v, err := Eval(expression, ctx)
	if err != nil {
		return ErrSentinel, false
	}
	return v, true
}

// Names returns the identifiers expression references that can resolve to a
// context variable, in order of first use. Conversion helpers such as int or
// select always win over context values and are left out; math names are
// kept because a variable may shadow them (see IsBuiltin).
func Names(expression string) ([]string, error) {
	n, err := parse(strings.TrimSpace(expression))
	if err != nil {
		return nil, err
	}
	var names []string
	seen := map[string]bool{}
	walk(n, func(n node) {
		if id, ok := n.(*nameNode); ok && !seen[id.id] && coreBuiltins[id.id] == nil {
			seen[id.id] = true
			names = append(names, id.id)
		}
	})
	return names, nil
}

// IsBuiltin reports whether name resolves to a builtin function or constant.
func IsBuiltin(name string) bool {
	if _, ok := coreBuiltins[name]; ok {
		return true
	}
	_, ok := mathBuiltins[name]
	return ok
}
