package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildComposesTagsAndSummary(t *testing.T) {
	b := NewBuilder(t.TempDir(), 3, 30)

	name, err := b.Build([]string{"receipts", "taxes"}, "grocery run", ".txt")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if name != "[receipts][taxes]_grocery-run.txt" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildCapsTagCount(t *testing.T) {
	b := NewBuilder(t.TempDir(), 3, 30)

	name, err := b.Build([]string{"one", "two", "three", "four"}, "extra tags", ".txt")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if name != "[one][two][three]_extra-tags.txt" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildFallsBackToUncategorized(t *testing.T) {
	b := NewBuilder(t.TempDir(), 3, 30)

	name, err := b.Build([]string{"漢字", ""}, "xx", ".txt")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if name != "[uncategorized]_untitled.txt" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildAppendsCounterOnCollision(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, 3, 30)

	touch(t, dir, "[receipts]_grocery-run.txt")
	touch(t, dir, "[receipts]_grocery-run-1.txt")

	name, err := b.Build([]string{"receipts"}, "grocery run", ".txt")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if name != "[receipts]_grocery-run-2.txt" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildFallsBackToTimestampWhenCountersExhausted(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, 3, 30)
	b.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}

	touch(t, dir, "[notes]_daily.txt")
	for i := 1; i <= 1000; i++ {
		touch(t, dir, fmt.Sprintf("[notes]_daily-%d.txt", i))
	}

	name, err := b.Build([]string{"notes"}, "daily", ".txt")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if name != "[notes]_daily-20260831120000.txt" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildUsesDefaultExtension(t *testing.T) {
	b := NewBuilder(t.TempDir(), 3, 30)

	name, err := b.Build([]string{"notes"}, "daily log", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filepath.Ext(name) != ".txt" {
		t.Errorf("name = %q", name)
	}
}

func TestExtractTags(t *testing.T) {
	tags := ExtractTags("[receipts][taxes-2024]_grocery-run.txt")
	if len(tags) != 2 || tags[0] != "receipts" || tags[1] != "taxes-2024" {
		t.Errorf("tags = %v", tags)
	}
	if got := ExtractTags("plain-file.txt"); len(got) != 0 {
		t.Errorf("expected no tags, got %v", got)
	}
}

func TestExtractSummary(t *testing.T) {
	summary, ok := ExtractSummary("[receipts]_grocery-run.txt")
	if !ok || summary != "grocery-run" {
		t.Errorf("summary = %q ok = %v", summary, ok)
	}
	if _, ok := ExtractSummary("not-a-generated-name.txt"); ok {
		t.Error("expected no match")
	}
}

func TestInputIdentifierFoldsModTime(t *testing.T) {
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	first := InputIdentifier("local", "scan.png", at)
	if first != "local:scan.png@1788170400" {
		t.Errorf("identifier = %q", first)
	}

	second := InputIdentifier("local", "scan.png", at.Add(time.Second))
	if first == second {
		t.Error("different mod times must mint different identifiers")
	}

	if got := InputIdentifier("", "scan.png", at); got != first {
		t.Errorf("empty source should default to local, got %q", got)
	}
}
