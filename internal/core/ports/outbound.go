package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

// Ledger is the idempotency store. MarkProcessed is the atomic commit point
// for an item: a write failure must surface, never be swallowed.
type Ledger interface {
	IsProcessed(ctx context.Context, identifier string) (bool, error)
	MarkProcessed(ctx context.Context, record domain.ProcessingRecord) error
}

// ObjectStorage stores staged source images and archived originals.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue hands discovered items from the watcher to the worker.
type MessageQueue interface {
	PublishItemDiscovered(ctx context.Context, item domain.InputItem) error
	SubscribeItemDiscovered(ctx context.Context, handler func(context.Context, domain.InputItem) error) error
}

// TextExtractor is the external OCR collaborator. It returns the raw,
// untrusted response string; callers own retry policy and validation.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte, availableTags []string, filenameHint string) (string, error)
}

// VocabularyStore supplies the legal tag set for a batch.
type VocabularyStore interface {
	Available(ctx context.Context) (domain.VocabularySnapshot, error)
	AddTag(name string) bool
}

// Notifier fans a per-item outcome out to configured providers. Delivery
// failures are logged by implementations and never fail the item.
type Notifier interface {
	NotifySuccess(ctx context.Context, n domain.SuccessNotification)
	NotifyError(ctx context.Context, n domain.ErrorNotification)
}

// AuditTrail writes the per-item JSON audit documents.
type AuditTrail interface {
	WriteLLMResponse(inputFilename, rawResponse string, availableTags []string) error
	WriteProcessing(entry domain.ProcessingAudit) error
	WriteError(entry domain.ErrorAudit) error
	WriteTagsSnapshot(snapshot domain.VocabularySnapshot) error
	Cleanup(olderThan time.Duration) (int, error)
}

// OutputWriter persists the final artifact under its collision-free name.
type OutputWriter interface {
	Write(ctx context.Context, name string, content []byte) (string, error)
}
