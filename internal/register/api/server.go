package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/platform/metrics"
	"github.com/retail-pos-engine/internal/register/api/handler"
	"github.com/retail-pos-engine/internal/register/service"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures the register HTTP server. gatherer backs
// the metrics endpoint and may be nil when metrics are disabled.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	documentService service.DocumentService,
	closureManager service.ClosureManager,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	documentHandler := handler.NewDocumentHandler(log, documentService)
	closureHandler := handler.NewClosureHandler(log, closureManager)

	setupRouter(log, httpRouter, routerDeps{
		documents: documentHandler,
		closures:  closureHandler,
		metrics:   m,
		gatherer:  gatherer,
		cfg:       cfg,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
