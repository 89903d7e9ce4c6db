package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// startMetricsServer starts the Prometheus metrics HTTP server on the
// configured port. Liveness/readiness are served separately by
// workerPkg.HealthServer; this server exposes only /metrics.
func startMetricsServer(ctx context.Context, logger *slog.Logger) *http.Server {
	port := getMetricsPort()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// getMetricsPort retrieves the metrics server port from environment variable.
// Defaults to 9090 if not set or invalid.
func getMetricsPort() int {
	portStr := os.Getenv("METRICS_PORT")
	if portStr == "" {
		return 9090
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}

	return port
}
