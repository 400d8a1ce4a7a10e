// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/health"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/metrics"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/ratelimit"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Server represents the REST API server.
type Server struct {
	server    *http.Server
	handlers  *HandlerContext
	router    http.Handler
	tlsConfig *tls.Config
	limiter   *ratelimit.Limiter
	logger    logging.ContextLogger

	metricsEnabled bool
	metricsPath    string
}

// Config holds the REST server configuration.
type Config struct {
	// Address is the host:port to listen on (default: 127.0.0.1:8080)
	Address string

	// Service performs splits and combines
	Service *sharing.Service

	// Health backs the liveness and readiness probes (optional)
	Health *health.Checker

	// Logger is the logging adapter (optional, discards if not provided)
	Logger logging.ContextLogger

	// Limiter enforces per-client request rates on /api/v1 (optional)
	Limiter *ratelimit.Limiter

	// MetricsEnabled exposes Prometheus metrics at MetricsPath
	MetricsEnabled bool

	// MetricsPath defaults to /metrics
	MetricsPath string

	// Version is reported by /health
	Version string

	// TLSConfig enables HTTPS when set (optional)
	TLSConfig *tls.Config

	// MaxBodyBytes caps request bodies (default: 1 MiB)
	MaxBodyBytes int64

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("sharing service is required")
	}
	if cfg.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("max body bytes cannot be negative")
	}

	// Set defaults
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8080"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	checker := cfg.Health
	if checker == nil {
		checker = health.NewChecker()
		checker.MarkStarted()
	}

	server := &Server{
		handlers:       NewHandlerContext(cfg.Service, checker, log, cfg.Version, cfg.MaxBodyBytes),
		tlsConfig:      cfg.TLSConfig,
		limiter:        cfg.Limiter,
		logger:         log,
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    cfg.MetricsPath,
	}
	server.router = server.setupRouter()

	server.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           server.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		TLSConfig:         cfg.TLSConfig,
	}

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, s.logger, errorEnvelope{Error: "not found"}, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, s.logger, errorEnvelope{Error: "method not allowed"}, http.StatusMethodNotAllowed)
	})

	r.Get("/health", s.handlers.HealthHandler)
	r.Head("/health", s.handlers.HealthHandler)
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)

	if s.metricsEnabled {
		r.Handle(s.metricsPath, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(NoStoreMiddleware)
		if s.limiter != nil && s.limiter.IsEnabled() {
			r.Use(ratelimit.Middleware(s.limiter, s.rateLimited))
		}

		r.Post("/split", s.handlers.SplitHandler)
		r.Post("/combine", s.handlers.CombineHandler)
	})

	return r
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a graceful Stop.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.tlsConfig != nil {
		s.logger.Info("Starting HTTPS server", logging.String("address", ln.Addr().String()))
		err = s.server.ServeTLS(ln, "", "")
	} else {
		s.logger.Info("Starting HTTP server", logging.String("address", ln.Addr().String()))
		err = s.server.Serve(ln)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", logging.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.logger.Info("Server stopped")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
