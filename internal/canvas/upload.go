package canvas

import (
	"context"
	"fmt"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/variables"
)

// Result summarizes an upload run.
type Result struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Progress reports the outcome of one sample during Upload.
type Progress struct {
	Index int // zero-based sample index
	Total int
	Err   error
}

// Upload renders every sample and creates one bank question per sample.
// A failed sample is recorded and the run continues. If the bank cannot
// be reached, every sample is counted as failed. progress may be nil.
func (c *Client) Upload(ctx context.Context, bankID int64, template string, spec question.Spec, samples []variables.Sample, progress func(Progress)) Result {
	res := Result{Errors: []string{}}
	if progress == nil {
		progress = func(Progress) {}
	}

	if err := c.BankExists(ctx, bankID); err != nil {
		res.Errors = append(res.Errors, err.Error())
		res.Failed = len(samples)
		return res
	}

	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			res.Failed += len(samples) - i
			res.Errors = append(res.Errors, fmt.Sprintf("upload interrupted: %v", err))
			return res
		}
		q := BuildQuestion(i, question.Render(template, spec, sample))
		err := c.CreateQuestion(ctx, bankID, q)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Sample %d: %v", i+1, err))
		} else {
			res.Success++
		}
		progress(Progress{Index: i, Total: len(samples), Err: err})
	}
	return res
}
