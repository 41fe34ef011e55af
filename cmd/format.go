package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/quizmaker/internal/markup"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [text...]",
	Short: "Convert inline markers (**bold**, *italic*, ~~strike~~, ==mark==) to HTML",
	Long:  "Convert inline markers to HTML. With no arguments the text is read from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = strings.TrimSuffix(string(data), "\n")
		}
		fmt.Fprintln(cmd.OutOrStdout(), markup.Format(text))
		return nil
	},
}
