package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kirillkom/ocrbox/internal/core/classify"
	"github.com/kirillkom/ocrbox/internal/core/domain"
	"github.com/kirillkom/ocrbox/internal/core/format"
	"github.com/kirillkom/ocrbox/internal/core/naming"
	"github.com/kirillkom/ocrbox/internal/core/ports"
)

// ProcessUseCase sequences one item through the pipeline:
// extract -> validate -> filter -> name -> write -> record.
// Failures are contained per item; a failing item never aborts its siblings.
type ProcessUseCase struct {
	ledger     ports.Ledger
	storage    ports.ObjectStorage
	vocab      ports.VocabularyStore
	extractor  ports.TextExtractor
	builder    *naming.Builder
	formatter  *format.Formatter
	output     ports.OutputWriter
	audit      ports.AuditTrail
	notifier   ports.Notifier
	thresholds classify.Thresholds
	logger     *slog.Logger
}

func NewProcessUseCase(
	ledger ports.Ledger,
	storage ports.ObjectStorage,
	vocab ports.VocabularyStore,
	extractor ports.TextExtractor,
	builder *naming.Builder,
	formatter *format.Formatter,
	output ports.OutputWriter,
	audit ports.AuditTrail,
	notifier ports.Notifier,
	thresholds classify.Thresholds,
	logger *slog.Logger,
) *ProcessUseCase {
	return &ProcessUseCase{
		ledger:     ledger,
		storage:    storage,
		vocab:      vocab,
		extractor:  extractor,
		builder:    builder,
		formatter:  formatter,
		output:     output,
		audit:      audit,
		notifier:   notifier,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Process handles a single item as a batch of one.
func (uc *ProcessUseCase) Process(ctx context.Context, item domain.InputItem) domain.Outcome {
	return uc.ProcessBatch(ctx, []domain.InputItem{item})[0]
}

// ProcessBatch fetches the vocabulary once, then runs every item against
// that same snapshot. The vocabulary is never refreshed mid-item.
func (uc *ProcessUseCase) ProcessBatch(ctx context.Context, items []domain.InputItem) []domain.Outcome {
	vocab, err := uc.vocab.Available(ctx)
	if err != nil {
		// Availability over completeness: the store already degraded to
		// the learned and fallback tags, so a hard error here is unexpected.
		uc.logger.Error("vocabulary fetch failed", "error", err)
		vocab = domain.VocabularySnapshot{Tags: []string{domain.FallbackTag}}
	}
	if err := uc.audit.WriteTagsSnapshot(vocab); err != nil {
		uc.logger.Warn("tags snapshot audit failed", "error", err)
	}

	outcomes := make([]domain.Outcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, uc.processItem(ctx, item, vocab))
	}
	return outcomes
}

func (uc *ProcessUseCase) processItem(ctx context.Context, item domain.InputItem, vocab domain.VocabularySnapshot) (outcome domain.Outcome) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pipeline panic: %v", r)
			outcome = uc.recordError(ctx, item, started, "panic", err, string(debug.Stack()))
		}
	}()

	processed, err := uc.ledger.IsProcessed(ctx, item.Identifier)
	if err != nil {
		return uc.recordFatal(item, fmt.Errorf("ledger lookup: %w", err))
	}
	if processed {
		uc.logger.Info("item already processed, skipping",
			"identifier", item.Identifier, "filename", item.Filename)
		return domain.Outcome{Identifier: item.Identifier, Skipped: true}
	}

	image, err := uc.loadImage(ctx, item.StorageKey)
	if err != nil {
		return uc.recordError(ctx, item, started, "loading", err, "")
	}

	// The extractor owns bounded retry with backoff; an error here means
	// retries are exhausted and the failure is permanent for this item.
	raw, err := uc.extractor.Extract(ctx, image, vocab.Tags, item.Filename)
	if err != nil {
		return uc.recordError(ctx, item, started, "extracting", err, "")
	}
	if err := uc.audit.WriteLLMResponse(item.Filename, raw, vocab.Tags); err != nil {
		uc.logger.Warn("llm response audit failed", "filename", item.Filename, "error", err)
	}

	result := classify.Validate(raw, vocab)
	kept := classify.FilterTags(result.Tags, uc.thresholds)

	tagNames := make([]string, 0, len(kept))
	for _, tag := range kept {
		tagNames = append(tagNames, tag.Name)
	}

	name, err := uc.builder.Build(tagNames, result.Summary, uc.formatter.Extension())
	if err != nil {
		return uc.recordError(ctx, item, started, "naming", err, "")
	}

	content, err := uc.formatter.Render(result, kept)
	if err != nil {
		return uc.recordError(ctx, item, started, "formatting", err, "")
	}

	ref, err := uc.output.Write(ctx, name, content)
	if err != nil {
		return uc.recordError(ctx, item, started, "writing", err, "")
	}

	record := domain.ProcessingRecord{
		Identifier:      item.Identifier,
		Status:          domain.StatusSuccess,
		ContentHash:     item.ContentHash,
		SourceID:        item.SourceID,
		OutputReference: ref,
		ProcessedAt:     time.Now().UTC(),
	}
	if err := uc.ledger.MarkProcessed(ctx, record); err != nil {
		// Losing idempotency state risks duplicate side effects, so this
		// is fatal for the item even though the artifact is on disk.
		return uc.recordFatal(item, fmt.Errorf("mark processed: %w", err))
	}

	uc.writeProcessingAudit(item, name, started, domain.StatusSuccess, kept, "")
	uc.notifier.NotifySuccess(ctx, domain.SuccessNotification{
		Filename:   item.Filename,
		Excerpt:    excerpt(result.Text),
		OutputName: name,
		Tags:       tagNames,
		Source:     item.SourceID,
	})

	uc.logger.Info("item processed",
		"identifier", item.Identifier,
		"filename", item.Filename,
		"output", name,
		"tags", tagNames,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return domain.Outcome{
		Identifier: item.Identifier,
		Success:    true,
		Text:       result.Text,
		OutputName: name,
	}
}

func (uc *ProcessUseCase) loadImage(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open staged image: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read staged image: %w", err)
	}
	return data, nil
}

// recordError is the terminal path for item-level failures: ledger record,
// error audit, error notification. Nothing here is allowed to panic out.
func (uc *ProcessUseCase) recordError(ctx context.Context, item domain.InputItem, started time.Time, stage string, cause error, stack string) domain.Outcome {
	uc.logger.Error("item failed",
		"identifier", item.Identifier,
		"filename", item.Filename,
		"stage", stage,
		"error", cause,
	)

	record := domain.ProcessingRecord{
		Identifier:  item.Identifier,
		Status:      domain.StatusError,
		ContentHash: item.ContentHash,
		SourceID:    item.SourceID,
		ErrorDetail: cause.Error(),
		ProcessedAt: time.Now().UTC(),
	}
	if err := uc.ledger.MarkProcessed(ctx, record); err != nil {
		return uc.recordFatal(item, fmt.Errorf("mark error record: %w (original: %v)", err, cause))
	}

	if err := uc.audit.WriteError(domain.ErrorAudit{
		InputFile:    item.Filename,
		ErrorAt:      time.Now().UTC(),
		ErrorType:    stage,
		ErrorMessage: cause.Error(),
		StackContext: stack,
	}); err != nil {
		uc.logger.Warn("error audit failed", "filename", item.Filename, "error", err)
	}
	uc.writeProcessingAudit(item, "", started, domain.StatusError, nil, cause.Error())

	uc.notifier.NotifyError(ctx, domain.ErrorNotification{
		Filename: item.Filename,
		Message:  cause.Error(),
		Source:   item.SourceID,
	})

	return domain.Outcome{Identifier: item.Identifier, Err: cause}
}

// recordFatal covers ledger failures, where no record could be committed.
func (uc *ProcessUseCase) recordFatal(item domain.InputItem, cause error) domain.Outcome {
	uc.logger.Error("ledger write failed, item outcome not recorded",
		"identifier", item.Identifier,
		"filename", item.Filename,
		"error", cause,
	)
	return domain.Outcome{Identifier: item.Identifier, Err: cause}
}

func (uc *ProcessUseCase) writeProcessingAudit(item domain.InputItem, output string, started time.Time, status domain.RecordStatus, kept []domain.ProposedTag, errMsg string) {
	entry := domain.ProcessingAudit{
		InputFile:    item.Filename,
		OutputFile:   output,
		ProcessedAt:  time.Now().UTC(),
		DurationMS:   time.Since(started).Milliseconds(),
		Status:       string(status),
		SelectedTags: make([]string, 0, len(kept)),
		Confidences:  make([]int, 0, len(kept)),
		ErrorMessage: errMsg,
	}
	for _, tag := range kept {
		entry.SelectedTags = append(entry.SelectedTags, tag.Name)
		entry.Confidences = append(entry.Confidences, tag.Confidence)
	}
	if err := uc.audit.WriteProcessing(entry); err != nil {
		uc.logger.Warn("processing audit failed", "filename", item.Filename, "error", err)
	}
}

func excerpt(text string) string {
	const max = 200
	if len(text) <= max {
		return text
	}
	return text[:max] + "…"
}
