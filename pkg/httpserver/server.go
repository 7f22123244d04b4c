package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/pkg/healthprobe"
	"github.com/alphaduel/arena/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DebateService abstracts the debate engine for the HTTP layer.
type DebateService interface {
	Run(ctx context.Context, req debate.Request) (*debate.Result, error)
	Stream(ctx context.Context, req debate.Request) <-chan types.Event
}

// Server provides the debate API plus metrics and health checks.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Service       DebateService
	Guard         *settlement.StakeGuard
	DefaultSymbol string
	DefaultRounds int
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	if cfg.Service != nil {
		handler := NewDebateHandler(cfg.Service, cfg.DefaultSymbol, cfg.DefaultRounds, cfg.Logger)
		// Streaming debates routinely outlive a request timeout, so the
		// debate routes carry none; liveness is the consumer's concern.
		r.Post("/api/debate/start", handler.HandleStart)
		r.Post("/api/debate/stream", handler.HandleStream)
		r.Get("/api/debate/ws", handler.HandleWebSocket)
		r.Get("/api/symbols", handler.HandleSymbols)
	}

	if cfg.Guard != nil {
		r.Get("/api/guard", guardStatusHandler(cfg.Guard))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
