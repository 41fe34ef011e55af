package question

import (
	"strings"
	"testing"

	"github.com/abhisek/quizmaker/internal/variables"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Validator: "structural", Message: "template is empty"}
	expected := `validator "structural": template is empty`
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestDefaultValidators_Chain(t *testing.T) {
	names := []string{"structural", "variables", "tokens", "render-check"}
	got := DefaultValidators()
	if len(got) != len(names) {
		t.Fatalf("expected %d validators, got %d", len(names), len(got))
	}
	for i, v := range got {
		if v.Name() != names[i] {
			t.Errorf("validator %d: expected %q, got %q", i, names[i], v.Name())
		}
	}
}

func validDoc(t *testing.T) *Document {
	t.Helper()
	set := variables.NewSet()
	if err := set.Add("a", variables.NewRandomNumber(1, 9, 1)); err != nil {
		t.Fatal(err)
	}
	if err := set.Add("b", variables.NewMathExpression("a * 2")); err != nil {
		t.Fatal(err)
	}
	return &Document{
		Variables: set,
		Template:  "Double {{a}}?",
		TemplateData: Spec{
			Type:    MultipleChoice,
			Options: []string{"{{b}}", "{{b + 1}}", "{{sqrt(a)}}"},
			Correct: 0,
		},
	}
}

func TestValidate_ValidDocument(t *testing.T) {
	if err := Validate(validDoc(t)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStructuralValidator(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Document)
		want string
	}{
		{"empty template", func(d *Document) { d.Template = "" }, "template is empty"},
		{"bad type", func(d *Document) { d.TemplateData.Type = "essay" }, `type must be "mc", "tf", or "open"`},
		{"one option", func(d *Document) { d.TemplateData.Options = []string{"x"} }, "needs at least 2 options"},
		{"empty option", func(d *Document) { d.TemplateData.Options[1] = "" }, "option 2 is empty"},
		{"index out of range", func(d *Document) { d.TemplateData.Correct = 3 }, "correct must be an option index between 0 and 2"},
		{"bad tf answer", func(d *Document) { d.TemplateData = Spec{Type: TrueFalse, Correct: "yes"} }, `correct must be "True" or "False"`},
		{"comment missing", func(d *Document) { d.TemplateData.IncludeGeneral = true }, "general_comment is empty"},
	}
	v := &StructuralValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc(t)
			tt.edit(doc)
			errs := v.Validate(doc)
			if len(errs) == 0 {
				t.Fatalf("expected a problem containing %q", tt.want)
			}
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("got %q, want it to contain %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestTokenValidator(t *testing.T) {
	doc := validDoc(t)
	doc.Template = "{{a}} and {{c + 1}} and {{a +}}"
	doc.TemplateData.Options[2] = "{{missing}}"

	errs := (&TokenValidator{}).Validate(doc)
	if len(errs) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(errs), errs)
	}
	wants := []string{
		`template: token {{c + 1}} references undefined name "c"`,
		`template: token {{a +}} does not parse`,
		`option 3: token {{missing}} references undefined name "missing"`,
	}
	for i, w := range wants {
		if !strings.Contains(errs[i].Message, w) {
			t.Errorf("problem %d: got %q, want it to contain %q", i, errs[i].Message, w)
		}
	}
}

func TestTokenValidator_DeclaredKeyWithSpaces(t *testing.T) {
	doc := validDoc(t)
	if err := doc.Variables.Add("my var", variables.NewCustom("hello")); err != nil {
		t.Fatal(err)
	}
	doc.Template = "{{ my var }}"
	if errs := (&TokenValidator{}).Validate(doc); len(errs) != 0 {
		t.Errorf("unexpected problems: %v", errs)
	}
}

func TestVariablesValidator(t *testing.T) {
	doc := validDoc(t)
	if err := doc.Variables.Add("x", variables.NewMathExpression("y + 1")); err != nil {
		t.Fatal(err)
	}
	errs := (&VariablesValidator{}).Validate(doc)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, `undefined name "y"`) {
		t.Errorf("unexpected problems: %v", errs)
	}
}

func TestRenderCheckValidator(t *testing.T) {
	doc := validDoc(t)
	if err := doc.Variables.Add("bad", variables.NewMathExpression("a / 0")); err != nil {
		t.Fatal(err)
	}
	doc.Template = "{{a}} {{nope}}"

	errs := (&RenderCheckValidator{Samples: 3}).Validate(doc)
	if len(errs) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(errs), errs)
	}
	if want := `variable "bad" unresolved in 3 of 3 samples`; errs[0].Message != want {
		t.Errorf("got %q, want %q", errs[0].Message, want)
	}
	if want := "rendered text still contains {{nope}}"; errs[1].Message != want {
		t.Errorf("got %q, want %q", errs[1].Message, want)
	}
}

func TestValidate_AggregatesAllProblems(t *testing.T) {
	doc := validDoc(t)
	doc.Template = ""
	doc.TemplateData.Correct = 7
	err := Validate(doc, &StructuralValidator{})
	if err == nil {
		t.Fatal("expected error")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 3 || lines[0] != "document validation failed:" {
		t.Errorf("unexpected error layout: %q", err.Error())
	}
}
