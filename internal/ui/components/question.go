package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/ui/theme"
)

// QuestionCard displays one rendered question with its answer.
type QuestionCard struct {
	Index    int
	Total    int
	Question question.Rendered
	Width    int
}

// NewQuestionCard creates a card for the index-th (1-based) of total
// questions.
func NewQuestionCard(index, total int, q question.Rendered, width int) QuestionCard {
	return QuestionCard{
		Index:    index,
		Total:    total,
		Question: q,
		Width:    width,
	}
}

// View renders the card.
func (c QuestionCard) View() string {
	q := c.Question
	var b strings.Builder

	b.WriteString(theme.Title.Render(fmt.Sprintf("Question %d/%d", c.Index, c.Total)))
	b.WriteString("  ")
	b.WriteString(theme.Badge.Render(TypeLabel(q.Type)))
	b.WriteString("\n\n")
	b.WriteString(styleText(theme.Body, q.Text))
	b.WriteString("\n")

	switch q.Type {
	case question.MultipleChoice:
		b.WriteString("\n")
		for i, opt := range q.Options {
			line := fmt.Sprintf("%s)  %s", OptionLabel(i), opt)
			if i == q.Correct {
				b.WriteString(theme.Correct.Render("✓ " + line))
			} else {
				b.WriteString(styleText(theme.Unselected, "  "+line))
			}
			b.WriteString("\n")
		}
		if q.Correct < 0 {
			b.WriteString(theme.Incorrect.Render("no valid correct option"))
			b.WriteString("\n")
		}
	case question.TrueFalse:
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Answer: "))
		b.WriteString(theme.Correct.Render(q.Answer))
		b.WriteString("\n")
	default:
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Answer: "))
		if q.Answer == "" {
			b.WriteString(theme.Hint.Render("(no answer key)"))
		} else {
			b.WriteString(styleText(theme.Correct, q.Answer))
		}
		b.WriteString("\n")
	}

	if q.Comment != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(q.Comment))
		b.WriteString("\n")
	}

	style := theme.Card
	if c.Width > 0 {
		style = style.Width(c.Width)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

// OptionLabel returns A, B, ... Z, AA, AB, ... for option i.
func OptionLabel(i int) string {
	label := ""
	for i++; i > 0; i = (i - 1) / 26 {
		label = string(rune('A'+(i-1)%26)) + label
	}
	return label
}

// TypeLabel returns the display name of a question type.
func TypeLabel(t question.Type) string {
	switch t {
	case question.MultipleChoice:
		return "multiple choice"
	case question.TrueFalse:
		return "true/false"
	default:
		return "open answer"
	}
}

// styleText renders s with style, switching to theme.Unresolved when s
// still carries tokens or error markers.
func styleText(style lipgloss.Style, s string) string {
	if strings.Contains(s, "{{") || strings.Contains(s, "<err>") {
		return theme.Unresolved.Render(s)
	}
	return style.Render(s)
}
