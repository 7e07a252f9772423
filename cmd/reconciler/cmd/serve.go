package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"sales-reconciliation-service/internal/reconciler"
	"sales-reconciliation-service/internal/server"
	"sales-reconciliation-service/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve report generation over HTTP",
	Long: `Serve starts the HTTP intake. Clients upload the three exports as
multipart/form-data and receive the JSON report.

Routes:
  POST /api/v1/reports   fields pos-file, platform-a-file, platform-b-file, optional granularity
  GET  /healthz          liveness probe
  GET  /metrics          Prometheus metrics

Examples:
  reconciler serve --addr :8080
  RECONCILER_SERVER_RATE_LIMIT=30 reconciler serve --config restaurant.yaml

  curl -F pos-file=@pos.csv -F platform-a-file=@a.xlsx -F platform-b-file=@b.csv \
    http://localhost:8080/api/v1/reports`,

	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", server.DefaultConfig().Addr, "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	generator, err := reconciler.NewGenerator(appConfig.Engine, reconciler.WithLogger(log))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(appConfig.Server, generator,
		server.WithLogger(log),
		server.WithMetrics(server.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}

	return srv.Run(cmd.Context())
}
