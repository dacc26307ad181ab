package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pressroom/internal/config"
	"pressroom/internal/core"
	"pressroom/internal/logger"
)

// Builder is the pipeline surface the HTTP layer exposes.
type Builder interface {
	Analyze(req core.ContentRequest) core.CompletenessAnalysis
	Build(ctx context.Context, req core.ContentRequest) *core.BuildResult
}

// StatsProvider reports store contents for the status endpoint.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]int, error)
}

// Server is the HTTP front for the article builder.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	builder    Builder
	stats      StatsProvider
	config     config.Server
	log        *slog.Logger
}

// New creates the HTTP server. stats may be nil when no store is wired.
func New(builder Builder, stats StatsProvider, cfg config.Server) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		builder: builder,
		stats:   stats,
		config:  cfg,
		log:     logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	// Builds can run long; the request timeout covers the whole pipeline.
	s.router.Use(middleware.Timeout(5 * time.Minute))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)

	s.router.Route("/api/articles", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/build", s.handleBuild)
	})
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler { return s.router }
