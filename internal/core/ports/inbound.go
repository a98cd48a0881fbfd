package ports

import (
	"context"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

// ItemIngestor is the inbound contract for staging a discovered image.
type ItemIngestor interface {
	Ingest(ctx context.Context, path string) (*domain.InputItem, error)
}

// ItemProcessor is the inbound contract for asynchronous item processing.
type ItemProcessor interface {
	Process(ctx context.Context, item domain.InputItem) domain.Outcome
}
