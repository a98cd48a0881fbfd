package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/ocrbox/internal/config"
	"github.com/kirillkom/ocrbox/internal/core/classify"
	"github.com/kirillkom/ocrbox/internal/core/format"
	"github.com/kirillkom/ocrbox/internal/core/naming"
	"github.com/kirillkom/ocrbox/internal/core/ports"
	"github.com/kirillkom/ocrbox/internal/core/usecase"
	"github.com/kirillkom/ocrbox/internal/infrastructure/audit"
	"github.com/kirillkom/ocrbox/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/ocrbox/internal/infrastructure/notify"
	"github.com/kirillkom/ocrbox/internal/infrastructure/queue/nats"
	"github.com/kirillkom/ocrbox/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/ocrbox/internal/infrastructure/resilience"
	"github.com/kirillkom/ocrbox/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/ocrbox/internal/infrastructure/vocab"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Ledger    ports.Ledger
	Audit     ports.AuditTrail
	IngestUC  ports.ItemIngestor
	ProcessUC ports.ItemProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ledger := postgres.NewLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	output, err := localfs.NewOutputDir(cfg.OutboxDir)
	if err != nil {
		return nil, fmt.Errorf("init outbox: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.MaxRetries,
		RetryInitialBackoff: cfg.RetryDelay,
	})
	extractor := gemini.New(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiModel, executor)

	vocabStore, err := vocab.NewStore(cfg.TagsFile, cfg.OutboxDir, cfg.EnableTagLearning, logger)
	if err != nil {
		return nil, fmt.Errorf("init vocabulary store: %w", err)
	}

	auditTrail, err := audit.NewWriter(cfg.LogsDir, cfg.EnableDetailedLogs, logger)
	if err != nil {
		return nil, fmt.Errorf("init audit trail: %w", err)
	}

	formatter := format.New(format.ParseKind(cfg.OutputFormat))
	builder := naming.NewBuilder(cfg.OutboxDir, cfg.MaxTagsPerFile, cfg.MaxSummaryLength)
	thresholds := classify.Thresholds{
		Primary:    cfg.PrimaryTagConfidenceThreshold,
		Additional: cfg.AdditionalTagConfidenceThreshold,
	}

	notifier := newNotifier(cfg, logger)

	ingestUC := usecase.NewIngestUseCase(ledger, storage, queue, cfg.SourceID, logger)
	processUC := usecase.NewProcessUseCase(
		ledger, storage, vocabStore, extractor,
		builder, formatter, output,
		auditTrail, notifier, thresholds, logger,
	)

	return &App{
		Config: cfg,

		Queue:     queue,
		Ledger:    ledger,
		Audit:     auditTrail,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) *notify.Manager {
	var providers []notify.Provider
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		providers = append(providers, notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.SMTPHost != "" && cfg.SMTPToAddress != "" {
		providers = append(providers, notify.NewEmail(
			cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.SMTPFromAddress, cfg.SMTPToAddress,
		))
	}
	return notify.NewManager(logger, providers...)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
