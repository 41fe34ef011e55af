package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <template.json|name>",
	Short: "Check a template for schema, variable and token problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, name, err := loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		a := variables.Analyze(doc.Variables)
		if len(a.Order) > 0 {
			fmt.Fprintf(out, "Resolution order: %s\n", strings.Join(a.Order, ", "))
		}

		problems := question.Check(doc)
		if len(problems) == 0 {
			fmt.Fprintf(out, "%s: ok\n", name)
			return nil
		}
		for _, p := range problems {
			fmt.Fprintf(out, "  ✗ [%s] %s\n", p.Validator, p.Message)
		}
		return fmt.Errorf("%s: %d problem(s) found", name, len(problems))
	},
}
