// Package server exposes contrast analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/metrics"
	httputil "github.com/jmylchreest/contrastlens/internal/util/http"
)

// multipartOverhead is added to MaxImageBytes for form boundaries and headers.
const multipartOverhead = 1 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Options configures a Server.
type Options struct {
	Config *config.Config

	// Logger defaults to a null logger.
	Logger hclog.Logger

	// Registry serves /metrics. A new registry with Metrics registered is
	// created when nil.
	Registry *prometheus.Registry

	// Metrics defaults to metrics.New().
	Metrics *metrics.Metrics

	// Loader fetches images for URL requests. Defaults to a SmartLoader
	// bounded by the configured fetch timeout and size.
	Loader image.Loader
}

// Server is the HTTP adapter around the contrast analyzer.
type Server struct {
	cfg      *config.Config
	logger   hclog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	loader   image.Loader
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	loader := opts.Loader
	if loader == nil {
		loader = image.NewSmartLoader(httputil.FetchOptions{
			Timeout:  cfg.FetchTimeout,
			MaxBytes: cfg.MaxImageBytes,
		})
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  m,
		loader:   loader,
	}, nil
}

// Handler returns the gin router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(s.logger.Named("http")),
		requestSizeLimiter(s.cfg.MaxImageBytes+multipartOverhead),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/analyze", s.analyze)
	v1.POST("/filter", s.filter)
	v1.POST("/pair", s.pair)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.RequestTimeout,
		ReadTimeout:       s.cfg.RequestTimeout,
		WriteTimeout:      s.cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", srv.Addr, "timeout", s.cfg.RequestTimeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}

func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"duration", time.Since(start))
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
