package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

// Writer emits one JSON document per event type per input into a flat logs
// directory. When disabled, every write is a no-op so the pipeline does not
// branch on the setting.
type Writer struct {
	dir     string
	enabled bool
	logger  *slog.Logger
	now     func() time.Time
}

func NewWriter(dir string, enabled bool, logger *slog.Logger) (*Writer, error) {
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
	}
	return &Writer{dir: dir, enabled: enabled, logger: logger, now: time.Now}, nil
}

type llmResponseDoc struct {
	InputFile     string   `json:"input_file"`
	Timestamp     string   `json:"timestamp"`
	RawResponse   string   `json:"raw_response"`
	AvailableTags []string `json:"available_tags"`
}

func (w *Writer) WriteLLMResponse(inputFilename, rawResponse string, availableTags []string) error {
	if !w.enabled {
		return nil
	}
	doc := llmResponseDoc{
		InputFile:     inputFilename,
		Timestamp:     w.now().UTC().Format(time.RFC3339),
		RawResponse:   rawResponse,
		AvailableTags: availableTags,
	}
	return w.writeJSON(stem(inputFilename)+"_llm_response.json", doc)
}

func (w *Writer) WriteProcessing(entry domain.ProcessingAudit) error {
	if !w.enabled {
		return nil
	}
	return w.writeJSON(stem(entry.InputFile)+"_processing.json", entry)
}

func (w *Writer) WriteError(entry domain.ErrorAudit) error {
	if !w.enabled {
		return nil
	}
	return w.writeJSON(stem(entry.InputFile)+"_error.json", entry)
}

type snapshotDoc struct {
	SnapshotAt     string   `json:"snapshot_at"`
	TagsFromFile   []string `json:"tags_from_file"`
	TagsLearned    []string `json:"tags_learned"`
	TotalAvailable []string `json:"total_available"`
}

func (w *Writer) WriteTagsSnapshot(snapshot domain.VocabularySnapshot) error {
	if !w.enabled {
		return nil
	}
	now := w.now().UTC()
	doc := snapshotDoc{
		SnapshotAt:     now.Format(time.RFC3339),
		TagsFromFile:   snapshot.FromFile,
		TagsLearned:    snapshot.Learned,
		TotalAvailable: snapshot.Tags,
	}
	name := fmt.Sprintf("tags_snapshot_%s.json", now.Format("20060102_150405"))
	return w.writeJSON(name, doc)
}

// Cleanup removes audit documents older than the given age and returns how
// many were deleted.
func (w *Writer) Cleanup(olderThan time.Duration) (int, error) {
	if !w.enabled {
		return 0, nil
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read logs dir: %w", err)
	}

	cutoff := w.now().Add(-olderThan)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(w.dir, entry.Name())); err != nil {
				w.logger.Warn("remove old audit log", "file", entry.Name(), "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

func (w *Writer) writeJSON(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal audit doc: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write audit doc: %w", err)
	}
	w.logger.Debug("wrote audit doc", "file", name)
	return nil
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
