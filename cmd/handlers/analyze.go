package handlers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pressroom/internal/analyzer"
	"pressroom/internal/core"
)

// NewAnalyzeCmd creates the analyze command: a pre-flight completeness
// check that never starts a build.
func NewAnalyzeCmd() *cobra.Command {
	var (
		topic       string
		title       string
		contentFile string
		category    string
		keywords    []string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check how complete a content request is before building",
		Long: `Analyze judges whether the inputs at hand are enough to build an
article, which generation mode would be used, and which inputs are
still missing.

Examples:
  # Topic only
  pressroom analyze --topic "solar debt sizing"

  # A draft on disk
  pressroom analyze --content draft.md --category "Project Finance"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.ContentRequest{
				Topic:    topic,
				Title:    title,
				Category: category,
				Keywords: keywords,
			}
			if contentFile != "" {
				raw, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("failed to read content file: %w", err)
				}
				req.RawContent = string(raw)
			}
			req.Normalize()

			analysis := analyzer.New().Analyze(req)

			out := struct {
				Analysis      core.CompletenessAnalysis `json:"analysis"`
				MissingInputs []core.MissingInput       `json:"missing_inputs"`
			}{
				Analysis:      analysis,
				MissingInputs: analyzer.MissingInputPrompts(analysis.MissingFields),
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Subject to write about")
	cmd.Flags().StringVar(&title, "title", "", "Exact article title")
	cmd.Flags().StringVar(&contentFile, "content", "", "Path to a draft to enhance")
	cmd.Flags().StringVar(&category, "category", "", "Sector category")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Target keywords")

	return cmd
}
