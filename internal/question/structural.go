package question

import "fmt"

// StructuralValidator checks that required fields are present and that
// the answer settings fit the question type.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(doc *Document) []*ValidationError {
	var errs []*ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)})
	}

	if doc.Template == "" {
		fail("template is empty")
	}
	spec := doc.TemplateData
	if spec.Type != "" && !spec.Type.Valid() {
		fail("type must be \"mc\", \"tf\", or \"open\"")
		return errs
	}

	switch spec.Kind() {
	case MultipleChoice:
		if len(spec.Options) < 2 {
			fail("multiple choice needs at least 2 options, got %d", len(spec.Options))
		}
		for i, opt := range spec.Options {
			if opt == "" {
				fail("option %d is empty", i+1)
			}
		}
		if idx := spec.CorrectIndex(); idx < 0 || idx >= len(spec.Options) {
			fail("correct must be an option index between 0 and %d", max(len(spec.Options)-1, 0))
		}
	case TrueFalse:
		switch c := spec.Correct.(type) {
		case nil, bool:
		case string:
			if c != "True" && c != "False" {
				fail("correct must be \"True\" or \"False\", got %q", c)
			}
		default:
			fail("correct must be \"True\" or \"False\"")
		}
	}

	if spec.IncludeGeneral && spec.GeneralComment == "" {
		fail("include_general is set but general_comment is empty")
	}
	return errs
}
