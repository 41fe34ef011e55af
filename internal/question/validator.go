package question

import (
	"fmt"
	"strings"
)

// Validator checks a document for problems.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator (for error
	// messages), e.g. "structural", "variables", "tokens".
	Name() string

	// Validate checks the document and returns every problem found, or
	// nil if it passes.
	Validate(doc *Document) []*ValidationError
}

// ValidationError describes one problem found in a document.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the standard validator chain.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&VariablesValidator{},
		&TokenValidator{},
		&RenderCheckValidator{Samples: 5},
	}
}

// Check runs every validator over doc and returns all problems found.
// With no validators the default chain is used.
func Check(doc *Document, validators ...Validator) []*ValidationError {
	if len(validators) == 0 {
		validators = DefaultValidators()
	}
	var problems []*ValidationError
	for _, v := range validators {
		problems = append(problems, v.Validate(doc)...)
	}
	return problems
}

// Validate runs Check and combines the problems into one error.
func Validate(doc *Document, validators ...Validator) error {
	problems := Check(doc, validators...)
	if len(problems) == 0 {
		return nil
	}
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return fmt.Errorf("document validation failed:\n  %s", strings.Join(lines, "\n  "))
}
