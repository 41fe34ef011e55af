package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmaker/internal/expr"
	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/render"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression or render a {{token}} string",
	Example: `  quizmaker eval "round(sqrt(a**2 + b**2), 2)" --set a=3 --set b=4
  quizmaker eval "The sum is {{a + b}}" --set a=1 --set b=2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		sample, err := parseAssignments(sets)
		if err != nil {
			return err
		}

		expression := args[0]
		if render.HasTokens(expression) {
			fmt.Fprintln(cmd.OutOrStdout(), render.Render(expression, sample))
			return nil
		}
		v, ok := expr.Evaluate(expression, sample)
		if !ok {
			return fmt.Errorf("cannot evaluate %q", expression)
		}
		fmt.Fprintln(cmd.OutOrStdout(), expr.Str(v))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringArray("set", nil, "Bind a variable, name=value (repeatable); values are JSON or plain text")
}

// parseAssignments turns name=value pairs into a sample. A value that
// parses as JSON keeps its type, anything else is a string.
func parseAssignments(pairs []string) (variables.Sample, error) {
	sample := variables.Sample{}
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", p)
		}
		decoded, err := question.DecodeSample([]byte(`{"v": ` + raw + `}`))
		if err != nil {
			sample[name] = raw
			continue
		}
		sample[name] = decoded["v"]
	}
	return sample, nil
}
