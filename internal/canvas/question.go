package canvas

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/abhisek/quizmaker/internal/question"
)

// Canvas question types.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer_question"
)

// Answer is one answer of a bank question.
type Answer struct {
	ID       int
	Text     string
	Comments string
	Weight   int
}

// Question is the minimal bank question payload.
type Question struct {
	Name    string
	Type    string
	Text    string
	Answers []Answer
}

// BuildQuestion converts the rendered question of sample index (zero
// based) into a bank question.
func BuildQuestion(index int, r question.Rendered) Question {
	q := Question{
		Name: fmt.Sprintf("Sample %d", index+1),
		Text: r.Text,
	}
	switch r.Type {
	case question.MultipleChoice:
		q.Type = TypeMultipleChoice
		for k, opt := range r.Options {
			q.Answers = append(q.Answers, Answer{ID: k, Text: opt, Weight: weight(k == r.Correct)})
		}
	case question.TrueFalse:
		q.Type = TypeTrueFalse
		q.Answers = []Answer{
			{ID: 0, Text: "True", Weight: weight(r.Correct == 0)},
			{ID: 1, Text: "False", Weight: weight(r.Correct == 1)},
		}
	default:
		q.Type = TypeShortAnswer
		q.Answers = []Answer{{ID: 1, Text: r.Answer, Weight: 100}}
	}
	return q
}

func weight(correct bool) int {
	if correct {
		return 100
	}
	return 0
}

// Values encodes q as nested question[...] form fields.
func (q Question) Values() url.Values {
	v := url.Values{}
	v.Set("question[question_name]", q.Name)
	v.Set("question[question_type]", q.Type)
	v.Set("question[question_text]", q.Text)
	for i, a := range q.Answers {
		prefix := "question[answers][" + strconv.Itoa(i) + "]"
		v.Set(prefix+"[id]", strconv.Itoa(a.ID))
		v.Set(prefix+"[answer_text]", a.Text)
		v.Set(prefix+"[answer_weight]", strconv.Itoa(a.Weight))
		v.Set(prefix+"[answer_comments]", a.Comments)
	}
	return v
}
