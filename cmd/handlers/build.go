package handlers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pressroom/internal/config"
	"pressroom/internal/core"
)

// NewBuildCmd creates the build command: one full pipeline run from the
// command line.
func NewBuildCmd() *cobra.Command {
	var (
		topic           string
		title           string
		contentFile     string
		category        string
		keywords        []string
		keyPoints       []string
		audience        string
		tone            string
		wordCount       int
		imageDecision   string
		imagePrompt     string
		autoPublish     bool
		threshold       float64
		skipResearch    bool
		skipEnhancement bool
		useInternal     bool
		useWeb          bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an article through the full pipeline",
		Long: `Build runs one content request end to end: completeness analysis,
research, enhancement, hero image resolution and the quality gate.
The result is published automatically only when --auto-publish is set
and the draft clears the quality threshold; otherwise it is held as a
draft for review.

Examples:
  # Generate from a topic, publish if good enough
  pressroom build --topic "solar debt sizing" --keywords DSCR,solar --auto-publish

  # Rework a rough draft with web research
  pressroom build --content draft.md --use-web

  # Publish the author's words verbatim (no rewriting)
  pressroom build --content final.md --title "Q3 Outlook" --skip-enhancement`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := core.ContentRequest{
				Topic:            topic,
				Title:            title,
				Category:         category,
				Keywords:         keywords,
				KeyPoints:        keyPoints,
				Audience:         audience,
				Tone:             tone,
				TargetWordCount:  wordCount,
				ImageDecision:    core.ImageDecision(imageDecision),
				ImagePrompt:      imagePrompt,
				AutoPublish:      autoPublish,
				QualityThreshold: threshold,
				SkipResearch:     skipResearch,
				SkipEnhancement:  skipEnhancement,
				UseInternal:      useInternal,
				UseWeb:           useWeb,
			}
			if contentFile != "" {
				raw, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("failed to read content file: %w", err)
				}
				req.RawContent = string(raw)
			}

			app, err := newApp(config.Get())
			if err != nil {
				return fmt.Errorf("failed to wire pipeline: %w", err)
			}
			defer app.Close()

			result := app.Pipeline.Build(cmd.Context(), req)

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))

			if result.State == core.BuildFailed {
				return fmt.Errorf("build failed at stage %s: %s", result.FailedStage, result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Subject to write about")
	cmd.Flags().StringVar(&title, "title", "", "Exact article title")
	cmd.Flags().StringVar(&contentFile, "content", "", "Path to a draft to enhance or publish")
	cmd.Flags().StringVar(&category, "category", "", "Sector category (inferred when empty)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Target keywords")
	cmd.Flags().StringSliceVar(&keyPoints, "key-points", nil, "Talking points to preserve")
	cmd.Flags().StringVar(&audience, "audience", "", "Target audience")
	cmd.Flags().StringVar(&tone, "tone", "", "Desired tone")
	cmd.Flags().IntVar(&wordCount, "words", 0, "Target word count (default 1000)")
	cmd.Flags().StringVar(&imageDecision, "image", string(core.ImageAutoSelect), "Hero image policy: auto_select, generate, user_provided, skip")
	cmd.Flags().StringVar(&imagePrompt, "image-prompt", "", "Prompt for --image generate")
	cmd.Flags().BoolVar(&autoPublish, "auto-publish", false, "Publish automatically when the threshold is met")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Quality threshold 0-100 (default 70)")
	cmd.Flags().BoolVar(&skipResearch, "skip-research", false, "Skip the research stage")
	cmd.Flags().BoolVar(&skipEnhancement, "skip-enhancement", false, "Use the draft verbatim, no rewriting")
	cmd.Flags().BoolVar(&useInternal, "use-internal", true, "Query the internal knowledge index")
	cmd.Flags().BoolVar(&useWeb, "use-web", false, "Query live web search")

	return cmd
}
