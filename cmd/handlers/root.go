package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pressroom/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pressroom",
		Short: "Pressroom builds, quality-gates and publishes articles.",
		Long: `Pressroom is the article builder: it turns a topic or a rough draft
into a publishable article through a staged pipeline (input analysis,
research, enhancement, hero image, quality evaluation) and either
publishes the result or holds it for review.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pressroom.yaml)")

	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewLibraryCmd())
	rootCmd.AddCommand(NewKnowledgeCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	_, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if config.Get().App.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", config.Get().App.ConfigFile)
	}
}
