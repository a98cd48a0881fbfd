package localfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveOpenRemoveRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, "key.png", bytes.NewReader([]byte("image"))); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := s.Open(ctx, "key.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image" {
		t.Errorf("data = %q", data)
	}

	if err := s.Remove(ctx, "key.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Open(ctx, "key.png"); err == nil {
		t.Error("expected error after remove")
	}
}

func TestSaveFlattensPathComponents(t *testing.T) {
	base := t.TempDir()
	s, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Save(context.Background(), "../escape.png", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.png")); err != nil {
		t.Errorf("key not flattened into base dir: %v", err)
	}
}

func TestOutputDirWriteReturnsFullPath(t *testing.T) {
	dir := t.TempDir()
	out, err := NewOutputDir(dir)
	if err != nil {
		t.Fatalf("NewOutputDir: %v", err)
	}

	path, err := out.Write(context.Background(), "[notes]_daily.txt", []byte("body"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if path != filepath.Join(dir, "[notes]_daily.txt") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "body" {
		t.Errorf("content = %q", data)
	}
}
