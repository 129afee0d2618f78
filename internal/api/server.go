// Package api provides the HTTP server exposing reconcile runs, match
// history, and aggregate stats over a JSON API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgermatch/ledgermatch/internal/api/handlers"
	"github.com/ledgermatch/ledgermatch/internal/api/middleware"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	runService *service.RunService
	metrics    *metrics.Metrics
}

// NewServer creates a new API server.
// If runService is nil, reconcile endpoints will not be available. If m is
// nil, the /metrics endpoint and request instrumentation are disabled.
func NewServer(cfg Config, repo storage.Repository, runService *service.RunService, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:     cfg,
		router:     gin.New(),
		logger:     logger,
		repo:       repo,
		runService: runService,
		metrics:    m,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Logging(s.logger))
	if s.metrics != nil {
		s.router.Use(middleware.Instrument(s.metrics))
	}

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Check)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := s.router.Group("/api")

	// Run history
	runsHandler := handlers.NewRunsHandler(s.repo)
	api.GET("/runs", runsHandler.List)
	api.GET("/runs/:id", runsHandler.Get)

	// Match audit trail
	matchesHandler := handlers.NewMatchesHandler(s.repo)
	api.GET("/matches", matchesHandler.List)

	// Stats
	statsHandler := handlers.NewStatsHandler(s.repo)
	api.GET("/stats", statsHandler.Get)

	// Reconcile operations (live jobs)
	if s.runService != nil {
		reconcileHandler := handlers.NewReconcileHandler(s.runService)
		api.POST("/reconcile", reconcileHandler.Start)
		api.GET("/reconcile", reconcileHandler.ListJobs)
		api.GET("/reconcile/:id", reconcileHandler.GetJob)
		api.DELETE("/reconcile/:id", reconcileHandler.CancelJob)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}
