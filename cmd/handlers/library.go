package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pressroom/internal/config"
	"pressroom/internal/core"
	"pressroom/internal/store"
)

// NewLibraryCmd creates the library command group for managing the
// hero-image library.
func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the hero-image library",
	}
	cmd.AddCommand(newLibraryAddCmd())
	cmd.AddCommand(newLibraryStatsCmd())
	return cmd
}

func newLibraryAddCmd() *cobra.Command {
	var (
		url      string
		title    string
		category string
		keywords []string
		quality  float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a stock image to the library",
		Example: `  pressroom library add --url https://cdn.example/wind.png \
      --title "Wind farm at dusk" --category "Renewable Energy" \
      --keywords wind,turbine --quality 85`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return fmt.Errorf("--url is required")
			}

			s, err := store.NewStore(config.Get().Store.Directory)
			if err != nil {
				return err
			}
			defer s.Close()

			img := core.LibraryImage{
				ID:       uuid.New().String(),
				URL:      url,
				Title:    title,
				Category: category,
				Keywords: keywords,
				Quality:  quality,
			}
			if err := s.AddImage(cmd.Context(), img); err != nil {
				return err
			}
			fmt.Printf("added image %s\n", img.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Image URL (required)")
	cmd.Flags().StringVar(&title, "title", "", "Image title")
	cmd.Flags().StringVar(&category, "category", "", "Sector category the image suits")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Matching keywords")
	cmd.Flags().Float64Var(&quality, "quality", 75, "Curation quality score 0-100")

	return cmd
}

func newLibraryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.NewStore(config.Get().Store.Directory)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}
