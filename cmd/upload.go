package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/abhisek/quizmaker/internal/canvas"
	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/store"
	"github.com/abhisek/quizmaker/internal/ui/components"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <template.json|name>",
	Short: "Upload rendered questions to a Canvas question bank",
	Long: `Render one question per sample and create it in a Canvas question bank.

Requires CANVAS_URL and CANVAS_TOKEN. Samples come from --samples, or are
generated with --count/--all/--seed. Failed samples are reported and the
upload continues with the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	addSampleFlags(uploadCmd, 1)
	uploadCmd.Flags().Int64("bank", 0, "Canvas question bank ID (required)")
	uploadCmd.Flags().String("samples", "", "Samples file produced by the sample command")
	_ = uploadCmd.MarkFlagRequired("bank")
}

func runUpload(cmd *cobra.Command, args []string) error {
	bankID, _ := cmd.Flags().GetInt64("bank")
	samplesPath, _ := cmd.Flags().GetString("samples")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return err
	}
	doc, name, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	if err := question.Validate(doc, &question.StructuralValidator{}); err != nil {
		return err
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

	client, err := canvas.New(canvas.ConfigFrom(cfg.Canvas))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	bar := components.NewProgressBar("Uploading", len(samples), 60)
	fmt.Fprintf(out, "Uploading %d question(s) from %s to bank %d\n", len(samples), name, bankID)

	res := client.Upload(ctx, bankID, doc.Template, doc.TemplateData, samples, func(p canvas.Progress) {
		bar = bar.Advance(p.Err != nil)
		fmt.Fprint(out, "\r"+bar.View())
	})
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Uploaded %d, failed %d\n", res.Success, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  ✗ %s\n", e)
	}

	recordUpload(cmd, &store.UploadEvent{
		TemplateName: name,
		BankID:       bankID,
		Success:      res.Success,
		Failed:       res.Failed,
		Errors:       res.Errors,
	})

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d question(s) failed to upload", res.Failed, len(samples))
	}
	return nil
}

// recordUpload appends ev to the upload history. Failures only warn; the
// upload itself already happened.
func recordUpload(cmd *cobra.Command, ev *store.UploadEvent) {
	s, err := openStore(cmd)
	if err != nil {
		warn(cmd, "record upload: %v", err)
		return
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.UploadRepo().Append(ctx, ev); err != nil {
		warn(cmd, "record upload: %v", err)
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent uploads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		verbose, _ := cmd.Flags().GetBool("verbose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.UploadRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query uploads: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No uploads recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-24s  %-10s  %-7s  %s\n",
			"ID", "Timestamp", "Template", "Bank", "OK", "Failed")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, e := range events {
			fmt.Fprintf(out, "%-5d  %-19s  %-24s  %-10d  %-7d  %d\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.TemplateName,
				e.BankID,
				e.Success,
				e.Failed,
			)
			if verbose {
				for _, msg := range e.Errors {
					fmt.Fprintf(out, "       ✗ %s\n", msg)
				}
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of uploads to show (0 for all)")
	historyCmd.Flags().BoolP("verbose", "v", false, "Show per-sample errors")
}
