package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/metrics"
	"github.com/jmylchreest/contrastlens/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve contrast analysis over HTTP.

Endpoints:
  GET  /health       liveness check
  GET  /metrics      Prometheus metrics
  POST /v1/analyze   multipart "image" upload or {"url": "..."}; query block_size, threshold
  POST /v1/filter    {"results": [...], "threshold": t}
  POST /v1/pair      {"background": "#...", "text": "#..."}

Examples:
  contrastlens serve --port 9000
  CONTRASTLENS_LOG_JSON=true contrastlens serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Int("workers", 0, "parallel row workers per request (default: number of CPUs)")
	serveCmd.Flags().Int64("max-image-bytes", 20*1024*1024, "maximum upload or download size")
	serveCmd.Flags().Float64P("threshold", "t", config.DefaultThreshold, "default display threshold (1-21)")
	serveCmd.Flags().IntP("block-size", "b", 16, "default grid block size in pixels")
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := appLogger.Named("server")
	for k, v := range appConfig.LogSummary() {
		logger.Debug("config", "key", k, "value", v)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	srv, err := server.New(server.Options{
		Config:   appConfig,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}
