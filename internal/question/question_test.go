package question

import (
	"testing"

	"github.com/abhisek/quizmaker/internal/variables"
)

func TestRender_MultipleChoice(t *testing.T) {
	spec := Spec{
		Type:    MultipleChoice,
		Options: []string{"{{a + b}}", "{{a * b}}", "**none**"},
		Correct: float64(1),
	}
	sample := variables.Sample{"a": int64(3), "b": int64(4)}

	got := Render("What is {{a}} times {{b}}?", spec, sample)
	if got.Text != "What is 3 times 4?" {
		t.Errorf("Text = %q", got.Text)
	}
	want := []string{"7", "12", "<strong>none</strong>"}
	if len(got.Options) != len(want) {
		t.Fatalf("Options = %v, want %v", got.Options, want)
	}
	for i := range want {
		if got.Options[i] != want[i] {
			t.Errorf("Options[%d] = %q, want %q", i, got.Options[i], want[i])
		}
	}
	if got.Correct != 1 || got.Answer != "12" {
		t.Errorf("Correct = %d, Answer = %q; want 1, \"12\"", got.Correct, got.Answer)
	}
}

func TestRender_MultipleChoiceBadIndex(t *testing.T) {
	spec := Spec{Type: MultipleChoice, Options: []string{"a", "b"}, Correct: 5}
	got := Render("q", spec, nil)
	if got.Correct != -1 || got.Answer != "" {
		t.Errorf("Correct = %d, Answer = %q; want -1, \"\"", got.Correct, got.Answer)
	}
}

func TestRender_TrueFalse(t *testing.T) {
	tests := []struct {
		correct any
		answer  string
		index   int
	}{
		{nil, "True", 0},
		{"True", "True", 0},
		{"False", "False", 1},
		{true, "True", 0},
		{"maybe", "False", 1},
	}
	for _, tt := range tests {
		got := Render("Is it?", Spec{Type: TrueFalse, Correct: tt.correct}, nil)
		if got.Answer != tt.answer || got.Correct != tt.index {
			t.Errorf("correct=%v: got (%q, %d), want (%q, %d)", tt.correct, got.Answer, got.Correct, tt.answer, tt.index)
		}
	}
}

func TestRender_Open(t *testing.T) {
	sample := variables.Sample{"a": int64(4)}
	tests := []struct {
		key  string
		want string
	}{
		{"a * 2", "8"},
		{"{{a}} squared", "4 squared"},
		{"", ""},
		{"not an expression", "not an expression"},
	}
	for _, tt := range tests {
		got := Render("q", Spec{AnswerKey: tt.key}, sample)
		if got.Type != Open {
			t.Errorf("Type = %q, want open", got.Type)
		}
		if got.Answer != tt.want {
			t.Errorf("answer_key %q: got %q, want %q", tt.key, got.Answer, tt.want)
		}
	}
}

func TestRender_Comment(t *testing.T) {
	sample := variables.Sample{"a": int64(2)}
	spec := Spec{Type: Open, GeneralComment: "Double {{a}}", IncludeGeneral: true}
	if got := Render("q", spec, sample).Comment; got != "Double 2" {
		t.Errorf("Comment = %q, want %q", got, "Double 2")
	}

	spec.IncludeGeneral = false
	if got := Render("q", spec, sample).Comment; got != "" {
		t.Errorf("Comment = %q, want empty when not included", got)
	}
}

func TestRenderAll(t *testing.T) {
	samples := []variables.Sample{{"n": int64(1)}, {"n": int64(2)}}
	got := RenderAll("n={{n}}", Spec{}, samples)
	if len(got) != 2 || got[0].Text != "n=1" || got[1].Text != "n=2" {
		t.Errorf("RenderAll = %+v", got)
	}
}

func TestSpec_CorrectIndex(t *testing.T) {
	tests := []struct {
		correct any
		want    int
	}{
		{nil, 0},
		{2, 2},
		{int64(3), 3},
		{float64(1), 1},
		{1.5, -1},
		{"1", -1},
	}
	for _, tt := range tests {
		if got := (Spec{Correct: tt.correct}).CorrectIndex(); got != tt.want {
			t.Errorf("CorrectIndex(%v) = %d, want %d", tt.correct, got, tt.want)
		}
	}
}
