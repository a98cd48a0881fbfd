package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/ocrbox/internal/bootstrap"
	"github.com/kirillkom/ocrbox/internal/config"
	"github.com/kirillkom/ocrbox/internal/core/domain"
	"github.com/kirillkom/ocrbox/internal/observability/logging"
	"github.com/kirillkom/ocrbox/internal/observability/metrics"
)

const serviceName = "ocrbox-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := app.Audit.Cleanup(7 * 24 * time.Hour); err != nil {
					log.Printf("audit cleanup error: %v", err)
				} else if deleted > 0 {
					log.Printf("audit cleanup removed %d documents", deleted)
				}
			}
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeItemDiscovered(ctx, func(handlerCtx context.Context, item domain.InputItem) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.ObserveQueueLag(serviceName, time.Since(item.DiscoveredAt))
		workerMetrics.StartItem()
		started := time.Now()

		outcome := app.ProcessUC.Process(processCtx, item)
		if outcome.Skipped {
			workerMetrics.ItemSkipped()
		}
		workerMetrics.FinishItem(serviceName, time.Since(started), outcome.Err)
		return outcome.Err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
