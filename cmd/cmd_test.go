package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/quizmaker/internal/variables"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseAssignments(t *testing.T) {
	s, err := parseAssignments([]string{"a=3", "b=2.5", "c=hello world", `d="quoted"`, "e=[1, 2]", "f="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"a": int64(3), "b": 2.5, "c": "hello world", "d": "quoted", "f": ""}
	for k, v := range want {
		if s[k] != v {
			t.Errorf("%s = %#v, want %#v", k, s[k], v)
		}
	}
	if list, ok := s["e"].([]any); !ok || len(list) != 2 {
		t.Errorf("e = %#v, want a two element list", s["e"])
	}

	for _, bad := range []string{"novalue", "=3"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDescribeRule(t *testing.T) {
	tests := []struct {
		rule variables.Rule
		want string
	}{
		{variables.NewRandomNumber(1, 9, 2), "min=1 max=9 step=2"},
		{variables.Rule{RuleData: variables.RuleData{Type: variables.RandomNumber}}, "min=1 max=10 step=1"},
		{variables.NewRandomChoice("x", "y"), "[x, y]"},
		{variables.NewMathExpression("a + 1"), "a + 1"},
		{variables.NewCustom("{{a}} apples"), "{{a}} apples"},
	}
	for _, tt := range tests {
		if got := describeRule(tt.rule); got != tt.want {
			t.Errorf("describeRule(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestEvalCommand(t *testing.T) {
	out, _, err := execute(t, "eval", "a * b", "--set", "a=3", "--set", "b=4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "12\n" {
		t.Errorf("got %q, want %q", out, "12\n")
	}
}

func TestFormatCommand(t *testing.T) {
	out, _, err := execute(t, "format", "**hi**", "there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<strong>hi</strong> there\n" {
		t.Errorf("got %q", out)
	}
}

const cliDoc = `{
  "variables": {
    "a": {"rule_data": {"type": "random_number", "min": 2, "max": 2}}
  },
  "template": "What is {{a}} + 1?",
  "template_data": {"type": "open", "answer_key": "a + 1"}
}`

func TestTemplateLifecycle(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "q.db")
	docPath := filepath.Join(dir, "add-one.json")
	if err := os.WriteFile(docPath, []byte(cliDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "template", "save", docPath, "--db", db)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(out, "Saved template add-one") {
		t.Errorf("unexpected save output %q", out)
	}

	out, _, err = execute(t, "template", "list", "--db", db)
	if err != nil || !strings.Contains(out, "add-one") {
		t.Errorf("list: %v\n%s", err, out)
	}

	out, _, err = execute(t, "preview", "add-one", "--plain", "--count", "2", "--seed", "1", "--db", db)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	want := "Question 1: What is 2 + 1?\n  Answer: 3\nQuestion 2: What is 2 + 1?\n  Answer: 3\n"
	if out != want {
		t.Errorf("preview got:\n%s\nwant:\n%s", out, want)
	}

	if _, _, err = execute(t, "template", "delete", "add-one", "--db", db); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err = execute(t, "template", "show", "add-one", "--db", db); err == nil {
		t.Error("expected error showing a deleted template")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(cliDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	badDoc := `{"variables": {}, "template": "{{nope}}", "template_data": {"type": "open"}}`
	if err := os.WriteFile(bad, []byte(badDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "validate", good)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "good: ok") {
		t.Errorf("unexpected output %q", out)
	}

	out, _, err = execute(t, "validate", bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "[tokens]") {
		t.Errorf("expected a token problem, got %q", out)
	}
}
