package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kirillkom/ocrbox/internal/core/domain"
	"github.com/kirillkom/ocrbox/internal/core/ports"
	"github.com/kirillkom/ocrbox/internal/core/usecase"
)

// Poller scans the inbox directory on an interval, ingests every supported
// image it finds and moves the original into the archive directory.
type Poller struct {
	ingestor   ports.ItemIngestor
	inboxDir   string
	archiveDir string
	interval   time.Duration
	logger     *slog.Logger
}

func NewPoller(ingestor ports.ItemIngestor, inboxDir, archiveDir string, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		ingestor:   ingestor,
		inboxDir:   inboxDir,
		archiveDir: archiveDir,
		interval:   interval,
		logger:     logger,
	}
}

// Run polls until the context is cancelled. The inbox is scanned once
// immediately so a restart picks up waiting files without delay.
func (p *Poller) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.inboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}
	if err := os.MkdirAll(p.archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.scanOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) scanOnce(ctx context.Context) {
	entries, err := os.ReadDir(p.inboxDir)
	if err != nil {
		p.logger.Error("inbox scan failed", "dir", p.inboxDir, "error", err)
		return
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !usecase.IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		p.handleFile(ctx, name)
	}
}

func (p *Poller) handleFile(ctx context.Context, name string) {
	path := filepath.Join(p.inboxDir, name)

	_, err := p.ingestor.Ingest(ctx, path)
	switch {
	case err == nil:
		p.logger.Info("inbox file ingested", "filename", name)
	case domain.IsKind(err, domain.ErrAlreadyProcessed):
		p.logger.Info("inbox file already processed", "filename", name)
	default:
		// Leave the file in place so the next scan retries it.
		p.logger.Error("inbox file ingest failed", "filename", name, "error", err)
		return
	}

	if err := p.archive(path, name); err != nil {
		p.logger.Error("archive failed", "filename", name, "error", err)
	}
}

// archive moves an ingested original out of the inbox, appending a numeric
// suffix when the archive already holds a file with the same name.
func (p *Poller) archive(path, name string) error {
	target := filepath.Join(p.archiveDir, name)
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for i := 1; ; i++ {
		_, err := os.Stat(target)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("stat archive target: %w", err)
		}
		target = filepath.Join(p.archiveDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}

	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("move to archive: %w", err)
	}
	return nil
}
