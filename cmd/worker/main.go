package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/bootstrap"
	"github.com/vecemhq/dataset-ingest/internal/config"
	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/observability/logging"
	"github.com/vecemhq/dataset-ingest/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: promMux(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDatasetIngested(ctx, func(handlerCtx context.Context, event domain.IngestionEvent) error {
		archiveCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		if !event.OccurredAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(event.OccurredAt))
		}

		workerMetrics.StartArchive()
		start := time.Now()
		archiveErr := app.ArchiveUC.ArchiveByID(archiveCtx, event.DatasetID)
		workerMetrics.FinishArchive("worker", time.Since(start), archiveErr)
		return archiveErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func promMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
