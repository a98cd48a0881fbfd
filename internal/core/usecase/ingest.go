package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ocrbox/internal/core/domain"
	"github.com/kirillkom/ocrbox/internal/core/naming"
	"github.com/kirillkom/ocrbox/internal/core/ports"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImageFile reports whether the path has a supported image extension.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IngestUseCase stages a discovered inbox file: mints the idempotency key,
// hashes the content, saves the bytes to object storage and publishes the
// item for the worker.
type IngestUseCase struct {
	ledger   ports.Ledger
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	sourceID string
	logger   *slog.Logger
}

func NewIngestUseCase(
	ledger ports.Ledger,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	sourceID string,
	logger *slog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		ledger:   ledger,
		storage:  storage,
		queue:    queue,
		sourceID: sourceID,
		logger:   logger,
	}
}

// Ingest stages one file. A file whose identifier is already in the ledger
// is skipped with ErrAlreadyProcessed, which callers treat as a normal
// outcome, not a failure.
func (uc *IngestUseCase) Ingest(ctx context.Context, path string) (*domain.InputItem, error) {
	if !IsImageFile(path) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest",
			fmt.Errorf("unsupported file type: %s", filepath.Ext(path)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	filename := filepath.Base(path)
	identifier := naming.InputIdentifier(uc.sourceID, filename, info.ModTime())

	processed, err := uc.ledger.IsProcessed(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if processed {
		return nil, domain.WrapError(domain.ErrAlreadyProcessed, "ingest",
			fmt.Errorf("identifier %s", identifier))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	sum := sha256.Sum256(data)
	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeStorageName(filename))

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("stage to object storage: %w", err)
	}

	item := domain.InputItem{
		Identifier:   identifier,
		Filename:     filename,
		StorageKey:   storageKey,
		ContentHash:  hex.EncodeToString(sum[:]),
		SourceID:     uc.sourceID,
		DiscoveredAt: time.Now().UTC(),
	}

	if err := uc.queue.PublishItemDiscovered(ctx, item); err != nil {
		return nil, fmt.Errorf("publish discovered item: %w", err)
	}

	uc.logger.Info("item staged",
		"identifier", item.Identifier,
		"filename", item.Filename,
		"storage_key", item.StorageKey,
	)
	return &item, nil
}

func sanitizeStorageName(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "image.bin"
	}
	return base
}
