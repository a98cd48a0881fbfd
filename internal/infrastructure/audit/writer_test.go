package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

func newTestWriter(t *testing.T, enabled bool) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWriter(dir, enabled, logger)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, dir
}

func TestWriteLLMResponseDocument(t *testing.T) {
	w, dir := newTestWriter(t, true)

	err := w.WriteLLMResponse("receipt.jpg", `{"text":"x"}`, []string{"receipts", "notes"})
	if err != nil {
		t.Fatalf("WriteLLMResponse: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "receipt_llm_response.json"))
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["input_file"] != "receipt.jpg" {
		t.Errorf("input_file = %v", doc["input_file"])
	}
	if doc["raw_response"] != `{"text":"x"}` {
		t.Errorf("raw_response = %v", doc["raw_response"])
	}
}

func TestWriteErrorDocument(t *testing.T) {
	w, dir := newTestWriter(t, true)

	err := w.WriteError(domain.ErrorAudit{
		InputFile:    "scan.png",
		ErrorAt:      time.Now().UTC(),
		ErrorType:    "extracting",
		ErrorMessage: "timeout",
	})
	if err != nil {
		t.Fatalf("WriteError: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "scan_error.json")); err != nil {
		t.Fatalf("document not written: %v", err)
	}
}

func TestDisabledWriterIsNoOp(t *testing.T) {
	w, dir := newTestWriter(t, false)

	if err := w.WriteLLMResponse("a.jpg", "raw", nil); err != nil {
		t.Fatalf("WriteLLMResponse: %v", err)
	}
	if err := w.WriteTagsSnapshot(domain.VocabularySnapshot{Tags: []string{"x"}}); err != nil {
		t.Fatalf("WriteTagsSnapshot: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("disabled writer produced files: %v", entries)
	}
}

func TestCleanupRemovesOnlyOldDocuments(t *testing.T) {
	w, dir := newTestWriter(t, true)

	old := filepath.Join(dir, "old_processing.json")
	if err := os.WriteFile(old, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "fresh_processing.json")
	if err := os.WriteFile(fresh, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(keep, stale, stale); err != nil {
		t.Fatal(err)
	}

	deleted, err := w.Cleanup(24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh document should survive")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("non-JSON file should survive")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old document should be removed")
	}
}
