package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/store"
	"github.com/abhisek/quizmaker/internal/variables"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage templates stored in the database",
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <template.json>",
	Short: "Store a template document under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := question.DecodeDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		for _, p := range question.Check(doc) {
			warn(cmd, "%s", p.Message)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		t := &store.Template{Name: name, Document: doc}
		if err := s.TemplateRepo().Save(cmd.Context(), t); err != nil {
			return fmt.Errorf("save template: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved template %s (%s)\n", t.Name, t.ID)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.TemplateRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No templates stored.")
			return nil
		}

		fmt.Fprintf(out, "%-24s  %-5s  %-4s  %s\n", "Name", "Type", "Vars", "Updated")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, t := range list {
			fmt.Fprintf(out, "%-24s  %-5s  %-4d  %s\n",
				t.Name,
				t.Document.TemplateData.Kind(),
				t.Document.Variables.Len(),
				t.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a stored template's variables and question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := getStoredTemplate(cmd, args[0])
		if err != nil {
			return err
		}
		doc := t.Document
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Template: %s\n", t.Name)
		fmt.Fprintf(out, "ID:       %s\n", t.ID)
		fmt.Fprintf(out, "Created:  %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Updated:  %s\n\n", t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

		fmt.Fprintln(out, "Variables:")
		if doc.Variables.Len() == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for _, name := range doc.Variables.Names() {
			r, _ := doc.Variables.Get(name)
			fmt.Fprintf(out, "  %-16s  %-16s  %s\n", name, r.Kind().Label(), describeRule(r))
		}

		fmt.Fprintf(out, "\nQuestion (%s):\n  %s\n", doc.TemplateData.Kind(), doc.Template)
		for i, opt := range doc.TemplateData.Options {
			fmt.Fprintf(out, "  %d) %s\n", i, opt)
		}
		if doc.TemplateData.AnswerKey != "" {
			fmt.Fprintf(out, "Answer key: %s\n", doc.TemplateData.AnswerKey)
		}
		return nil
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Write a stored template as a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		t, err := getStoredTemplate(cmd, args[0])
		if err != nil {
			return err
		}
		data, err := question.EncodeDocument(t.Document)
		if err != nil {
			return fmt.Errorf("encode template: %w", err)
		}
		if out == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		return os.WriteFile(out, append(data, '\n'), 0o644)
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.TemplateRepo().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
		return nil
	},
}

func init() {
	templateSaveCmd.Flags().String("name", "", "Template name (default: file name without extension)")
	templateExportCmd.Flags().String("out", "", "Write to this file instead of stdout")

	templateCmd.AddCommand(templateSaveCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateExportCmd)
	templateCmd.AddCommand(templateDeleteCmd)
}

func getStoredTemplate(cmd *cobra.Command, name string) (*store.Template, error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.TemplateRepo().Get(cmd.Context(), name)
}

// describeRule summarizes a rule's payload for display.
func describeRule(r variables.Rule) string {
	d := r.RuleData
	switch r.Kind() {
	case variables.RandomNumber:
		return fmt.Sprintf("min=%v max=%v step=%v", orDefault(d.Min, 1), orDefault(d.Max, 10), orDefault(d.Step, 1))
	case variables.RandomChoice:
		parts := make([]string, len(d.Choices))
		for i, c := range d.Choices {
			parts[i] = fmt.Sprint(c)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case variables.MathExpression:
		return d.Expression
	default:
		if d.Description != "" {
			return d.Description
		}
		return r.RuleDescription
	}
}

func orDefault(v any, def int) any {
	if v == nil {
		return def
	}
	return v
}
