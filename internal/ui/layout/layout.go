package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmaker/internal/ui/theme"
)

const (
	MinWidth     = 40
	DefaultWidth = 80
	MaxWidth     = 120
)

// KeyValue is one entry of a summary footer.
type KeyValue struct {
	Key   string
	Value string
}

// ClampWidth bounds a terminal width to the range cards render well in.
// Zero or negative widths fall back to DefaultWidth.
func ClampWidth(width int) int {
	if width <= 0 {
		return DefaultWidth
	}
	return min(max(width, MinWidth), MaxWidth)
}

// RenderHeader renders a title bar with right-aligned detail text.
func RenderHeader(title, detail string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(title)

	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(detail)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	rule := lipgloss.NewStyle().
		Foreground(theme.Border).
		Render(strings.Repeat("─", max(width, 1)))

	return left + strings.Repeat(" ", gap) + right + "\n" + rule
}

// RenderFooter renders summary pairs on one line.
func RenderFooter(pairs []KeyValue, width int) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(kv.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(kv.Value)
		parts = append(parts, part)
	}

	rule := lipgloss.NewStyle().
		Foreground(theme.Border).
		Render(strings.Repeat("─", max(width, 1)))

	return rule + "\n" + strings.Join(parts, "   ")
}

// RenderFrame stacks header, blocks and footer with blank lines between
// blocks.
func RenderFrame(header string, blocks []string, footer string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, block := range blocks {
		b.WriteString("\n")
		b.WriteString(block)
		b.WriteString("\n")
	}
	if footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
		b.WriteString("\n")
	}
	return b.String()
}
