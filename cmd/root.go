package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/quizmaker/internal/config"
	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/store"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizmaker",
	Short: "Generate randomized quiz questions from templates",
	Long: `quizmaker turns question templates with variables into randomized
questions, previews them, and uploads them to Canvas question banks.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZMAKER_DB env var)")

	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUIZMAKER_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, config.EnsureDir(p)
	}
	return config.DefaultDBPath()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.ConfigFromEnv()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// loadDocument reads a template document. ref is a file path, "-" for
// stdin, or the name of a stored template. The returned name identifies
// the template for sample sets and upload history.
func loadDocument(cmd *cobra.Command, ref string) (*question.Document, string, error) {
	if ref == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		doc, err := question.DecodeDocument(data)
		return doc, "stdin", err
	}

	data, err := os.ReadFile(ref)
	if err == nil {
		doc, err := question.DecodeDocument(data)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", ref, err)
		}
		return doc, strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)), nil
	}
	if !os.IsNotExist(err) || strings.HasSuffix(ref, ".json") {
		return nil, "", err
	}

	s, serr := openStore(cmd)
	if serr != nil {
		return nil, "", serr
	}
	defer s.Close()
	t, serr := s.TemplateRepo().Get(cmd.Context(), ref)
	if serr != nil {
		return nil, "", fmt.Errorf("no template file or stored template named %q: %w", ref, serr)
	}
	return t.Document, t.Name, nil
}

// sampleOptions are the flags shared by commands that generate samples.
type sampleOptions struct {
	count int
	all   bool
	seed  uint64
}

func addSampleFlags(cmd *cobra.Command, defaultCount int) {
	cmd.Flags().Int("count", defaultCount, "Number of samples to generate")
	cmd.Flags().Bool("all", false, "Generate every combination of choice variables")
	cmd.Flags().Uint64("seed", 0, "Random seed for reproducible samples")
}

func sampleFlags(cmd *cobra.Command) sampleOptions {
	count, _ := cmd.Flags().GetInt("count")
	all, _ := cmd.Flags().GetBool("all")
	seed, _ := cmd.Flags().GetUint64("seed")
	return sampleOptions{count: count, all: all, seed: seed}
}

// generateSamples produces samples for set according to the flags.
// Counts above the configured maximum are clamped with a warning.
func generateSamples(cmd *cobra.Command, cfg config.Config, set *variables.Set) ([]variables.Sample, error) {
	opts := sampleFlags(cmd)

	genOpts := []variables.Option{variables.WithPasses(cfg.Passes)}
	if cmd.Flags().Changed("seed") {
		genOpts = append(genOpts, variables.WithSeed(opts.seed))
	}
	gen := variables.NewGenerator(genOpts...)

	if opts.all {
		if n := variables.Combinations(set); n > cfg.MaxCombinations {
			return nil, fmt.Errorf("%d combinations exceed the limit of %d (QUIZMAKER_MAX_COMBINATIONS)", n, cfg.MaxCombinations)
		}
		return gen.ExpandAll(set), nil
	}

	if opts.count < 1 {
		return nil, fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}
	if opts.count > cfg.MaxSamples {
		warn(cmd, "count %d exceeds the limit, generating %d", opts.count, cfg.MaxSamples)
		opts.count = cfg.MaxSamples
	}
	samples := make([]variables.Sample, opts.count)
	for i := range samples {
		samples[i] = gen.Generate(set)
	}
	return samples, nil
}

func readSamplesFile(path string) ([]variables.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	samples, err := question.DecodeSamples(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

func warn(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}
