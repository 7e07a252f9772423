// Package server exposes report generation over HTTP.
//
// Routes:
//   - POST /api/v1/reports: multipart upload of the three exports, returns the JSON report
//   - GET  /healthz: liveness probe
//   - GET  /metrics: Prometheus metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"sales-reconciliation-service/internal/reconciler"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Config holds the HTTP intake settings
type Config struct {
	Addr            string        `json:"addr" mapstructure:"addr"`
	MaxUploadBytes  int64         `json:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RateLimit       int           `json:"rate_limit" mapstructure:"rate_limit"`
	RateWindow      time.Duration `json:"rate_window" mapstructure:"rate_window"`
	RequestTimeout  time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns the default intake settings
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxUploadBytes:  32 << 20,
		RateLimit:       10,
		RateWindow:      time.Minute,
		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate validates the intake settings
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "server.addr", nil, nil)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "server.max_upload_bytes", c.MaxUploadBytes, nil)
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "server.rate_limit", c.RateLimit, nil).
			WithSuggestion("rate_limit and rate_window must both be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "server.request_timeout", c.RequestTimeout, nil)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "server.shutdown_timeout", c.ShutdownTimeout, nil)
	}
	return nil
}

// Server is the HTTP intake for report generation
type Server struct {
	config    Config
	generator *reconciler.Generator
	metrics   *Metrics
	logger    logger.Logger
	router    chi.Router
}

// Option customizes a Server
type Option func(*Server)

// WithMetrics sets the metrics collector
func WithMetrics(metrics *Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.logger = log.WithComponent("http")
	}
}

// New creates a Server around a report generator
func New(config Config, generator *reconciler.Generator, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		generator: generator,
		logger:    logger.GetGlobalLogger().WithComponent("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}

	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
	})

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
		middleware.Timeout(s.config.RequestTimeout),
		secureMiddleware.Handler,
		s.metrics.Middleware,
	)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	uploadLimiter := httprate.Limit(s.config.RateLimit, s.config.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: errorBody{
				Code:    "rate_limited",
				Message: "too many report requests, retry later",
			}})
		}),
	)
	r.Route("/api/v1", func(r chi.Router) {
		r.With(uploadLimiter).Post("/reports", s.handleCreateReport)
	})

	return r
}

// requestLogger logs every request through the service logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("Request handled")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.InternalError(errors.CodeUnexpectedError, "http listen", err).
				WithContext("addr", s.config.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "http shutdown", err)
	}
	return nil
}
