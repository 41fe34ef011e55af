package cmd

import (
	"fmt"
	"os"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/spf13/cobra"
)

// keepSampleSets is how many saved sample sets are kept per template.
const keepSampleSets = 20

var sampleCmd = &cobra.Command{
	Use:   "sample <template.json|name>",
	Short: "Generate variable samples for a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetBool("save")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		doc, name, err := loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		for _, p := range question.Check(doc, &question.VariablesValidator{}) {
			warn(cmd, "%s", p.Message)
		}

		samples, err := generateSamples(cmd, cfg, doc.Variables)
		if err != nil {
			return err
		}

		data, err := question.EncodeSamples(samples)
		if err != nil {
			return fmt.Errorf("encode samples: %w", err)
		}
		if out == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		} else if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}

		if !save {
			return nil
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		repo := s.SampleSetRepo()
		id, err := repo.Save(cmd.Context(), name, samples)
		if err != nil {
			return fmt.Errorf("save samples: %w", err)
		}
		if err := repo.Prune(cmd.Context(), name, keepSampleSets); err != nil {
			warn(cmd, "prune old sample sets: %v", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d samples for %s as %s\n", len(samples), name, id)
		return nil
	},
}

func init() {
	addSampleFlags(sampleCmd, 1)
	sampleCmd.Flags().String("out", "", "Write samples to this file instead of stdout")
	sampleCmd.Flags().Bool("save", false, "Store the sample set in the database")
}
