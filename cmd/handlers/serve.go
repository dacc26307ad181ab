package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pressroom/internal/config"
	"pressroom/internal/logger"
	"pressroom/internal/server"
)

// NewServeCmd creates the serve command for the HTTP API.
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve exposes the article builder over HTTP:

  POST /api/articles/analyze   pre-flight completeness analysis
  POST /api/articles/build     run one build to its terminal result
  GET  /api/status             store statistics
  GET  /health                 liveness probe

Examples:
  pressroom serve
  pressroom serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	log := logger.Get()

	cfg := config.Get()
	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	app, err := newApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to wire pipeline: %w", err)
	}
	defer app.Close()

	srv := server.New(app.Pipeline, app.Store, serverCfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting article builder API", "host", serverCfg.Host, "port", serverCfg.Port)
	return srv.Start(ctx)
}
