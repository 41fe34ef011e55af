package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/ui/components"
	"github.com/abhisek/quizmaker/internal/ui/layout"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <template.json|name>",
	Short: "Render questions for a template and show them as cards",
	Long: `Render the template's question for a set of samples. Samples come from
--samples, or are generated with --count/--all/--seed.

Use --plain for unstyled output suitable for piping.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	addSampleFlags(previewCmd, 3)
	previewCmd.Flags().String("samples", "", "Samples file produced by the sample command")
	previewCmd.Flags().Bool("plain", false, "Print plain text instead of cards")
	previewCmd.Flags().Int("width", 0, "Card width (default: $COLUMNS or 80)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	samplesPath, _ := cmd.Flags().GetString("samples")
	plain, _ := cmd.Flags().GetBool("plain")
	width, _ := cmd.Flags().GetInt("width")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, name, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	for _, p := range question.Check(doc, &question.StructuralValidator{}, &question.VariablesValidator{}, &question.TokenValidator{}) {
		warn(cmd, "%s", p.Message)
	}

	var samples []variables.Sample
	if samplesPath != "" {
		samples, err = readSamplesFile(samplesPath)
	} else {
		samples, err = generateSamples(cmd, cfg, doc.Variables)
	}
	if err != nil {
		return err
	}

	questions := question.RenderAll(doc.Template, doc.TemplateData, samples)
	out := cmd.OutOrStdout()

	if plain {
		for i, q := range questions {
			fmt.Fprintf(out, "Question %d: %s\n", i+1, q.Text)
			for j, opt := range q.Options {
				mark := " "
				if j == q.Correct {
					mark = "*"
				}
				fmt.Fprintf(out, "  %s %s) %s\n", mark, components.OptionLabel(j), opt)
			}
			fmt.Fprintf(out, "  Answer: %s\n", q.Answer)
			if q.Comment != "" {
				fmt.Fprintf(out, "  Comment: %s\n", q.Comment)
			}
		}
		return nil
	}

	if width == 0 {
		width, _ = strconv.Atoi(os.Getenv("COLUMNS"))
	}
	width = layout.ClampWidth(width)

	cards := make([]string, len(questions))
	for i, q := range questions {
		cards[i] = components.NewQuestionCard(i+1, len(questions), q, width).View()
	}

	header := layout.RenderHeader(name, components.TypeLabel(doc.TemplateData.Kind()), width)
	footer := layout.RenderFooter([]layout.KeyValue{
		{Key: "samples", Value: strconv.Itoa(len(samples))},
		{Key: "variables", Value: strconv.Itoa(doc.Variables.Len())},
	}, width)
	fmt.Fprint(out, layout.RenderFrame(header, cards, footer))
	return nil
}
