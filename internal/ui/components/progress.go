package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmaker/internal/ui/theme"
)

// ProgressBar displays upload progress split into succeeded and failed
// segments.
type ProgressBar struct {
	Label  string
	Done   int
	Failed int
	Total  int
	Width  int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, total, width int) ProgressBar {
	return ProgressBar{
		Label: label,
		Total: total,
		Width: width,
	}
}

// Advance records one finished item.
func (p ProgressBar) Advance(failed bool) ProgressBar {
	p.Done++
	if failed {
		p.Failed++
	}
	return p
}

// Percent returns the finished fraction in [0, 1].
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 1
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	counter := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	if p.Failed > 0 {
		counter += fmt.Sprintf(" (%d failed)", p.Failed)
	}

	barWidth := p.Width - lipgloss.Width(result) - lipgloss.Width(counter)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent())
	failed := 0
	if p.Done > 0 {
		failed = filled * p.Failed / p.Done
	}
	ok := filled - failed
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(" ", ok)) +
		theme.ProgressFailed.Render(strings.Repeat(" ", failed)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	return result + theme.Hint.Render(counter)
}
