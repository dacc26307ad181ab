package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pressroom/internal/config"
	"pressroom/internal/knowledge"
	"pressroom/internal/llm"
)

// NewKnowledgeCmd creates the knowledge command group for the internal
// research index.
func NewKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the internal knowledge index",
	}
	cmd.AddCommand(newKnowledgeAddCmd())
	cmd.AddCommand(newKnowledgeCountCmd())
	return cmd
}

func newKnowledgeAddCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Index a document for internal research",
		Args:  cobra.ExactArgs(1),
		Example: `  pressroom knowledge add notes/dscr-benchmarks.md
  pressroom knowledge add report.txt --title "2026 solar cost report"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			idx, err := openIndex()
			if err != nil {
				return err
			}
			defer idx.Close()

			id, err := idx.Add(cmd.Context(), title, string(raw))
			if err != nil {
				return fmt.Errorf("failed to index document: %w", err)
			}
			fmt.Printf("indexed %q as %s\n", title, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	return cmd
}

func newKnowledgeCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many documents are indexed",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := openIndex()
			if err != nil {
				return err
			}
			defer idx.Close()

			count, err := idx.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	}
}

func openIndex() (*knowledge.Index, error) {
	cfg := config.Get()
	gemini, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return nil, err
	}
	return knowledge.NewIndex(cfg.Store.Directory, gemini)
}
