package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/ocrbox/internal/bootstrap"
	"github.com/kirillkom/ocrbox/internal/config"
	"github.com/kirillkom/ocrbox/internal/observability/logging"
	"github.com/kirillkom/ocrbox/internal/watcher"
)

const serviceName = "ocrbox-watcher"

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

	poller := watcher.NewPoller(app.IngestUC, cfg.InboxDir, cfg.ArchiveDir, cfg.PollInterval, logger)

	log.Printf("watcher polling %s every %s", cfg.InboxDir, cfg.PollInterval)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watcher error: %v", err)
	}
}
