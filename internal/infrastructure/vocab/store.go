package vocab

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/ocrbox/internal/core/domain"
	"github.com/kirillkom/ocrbox/internal/core/naming"
)

// defaultTags seed the vocabulary file on first run.
var defaultTags = []string{
	"receipts",
	"documents",
	"invoices",
	"notes",
	"screenshots",
	"personal",
	"work",
	"travel",
	"health",
	"finance",
}

var reservedNames = map[string]bool{
	"uncategorized": true,
	"logs":          true,
	"archive":       true,
	"inbox":         true,
	"outbox":        true,
}

// Store maintains the legal tag set: a user-editable newline-delimited
// file plus, when learning is enabled, tags recovered from bracket tokens
// in previously generated output names. The set is rebuilt on every
// Available call so edits land on the next batch, never mid-batch.
type Store struct {
	tagsFile  string
	outputDir string
	learning  bool
	logger    *slog.Logger
}

func NewStore(tagsFile, outputDir string, learning bool, logger *slog.Logger) (*Store, error) {
	s := &Store{
		tagsFile:  tagsFile,
		outputDir: outputDir,
		learning:  learning,
		logger:    logger,
	}

	if _, err := os.Stat(tagsFile); os.IsNotExist(err) {
		if err := os.WriteFile(tagsFile, []byte(strings.Join(defaultTags, "\n")+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("create default tags file: %w", err)
		}
		logger.Info("created default tags file", "path", tagsFile, "tags", len(defaultTags))
	}
	return s, nil
}

// Available returns the merged, validated, sorted tag set. A broken tags
// file degrades to the learned set plus the fallback tag; availability
// takes priority over completeness, so this never returns an error for a
// read failure.
func (s *Store) Available(_ context.Context) (domain.VocabularySnapshot, error) {
	fromFile := s.loadFromFile()
	learned := s.learnFromFilenames()

	union := make(map[string]bool, len(fromFile)+len(learned)+1)
	for _, t := range fromFile {
		union[t] = true
	}
	for _, t := range learned {
		union[t] = true
	}
	union[domain.FallbackTag] = true

	tags := make([]string, 0, len(union))
	for t := range union {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return domain.VocabularySnapshot{
		Tags:     tags,
		FromFile: fromFile,
		Learned:  learned,
	}, nil
}

// AddTag appends a new valid tag to the persisted list. Returns true when
// the tag is present afterwards (including the already-there case), false
// when the name is invalid or the write failed.
func (s *Store) AddTag(name string) bool {
	tag := strings.TrimSpace(name)
	if !IsValidTag(tag) {
		s.logger.Warn("rejected invalid tag", "tag", name)
		return false
	}

	for _, existing := range s.loadFromFile() {
		if existing == tag {
			return true
		}
	}

	f, err := os.OpenFile(s.tagsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("open tags file for append", "error", err)
		return false
	}
	defer f.Close()

	if _, err := f.WriteString(tag + "\n"); err != nil {
		s.logger.Error("append tag", "tag", tag, "error", err)
		return false
	}
	s.logger.Info("added tag", "tag", tag)
	return true
}

func (s *Store) loadFromFile() []string {
	f, err := os.Open(s.tagsFile)
	if err != nil {
		s.logger.Warn("tags file unreadable", "path", s.tagsFile, "error", err)
		return nil
	}
	defer f.Close()

	var tags []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tag := strings.TrimSpace(scanner.Text())
		if tag == "" || seen[tag] {
			continue
		}
		if !IsValidTag(tag) {
			s.logger.Debug("dropped invalid tag from file", "tag", tag)
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("tags file scan failed", "error", err)
	}
	return tags
}

func (s *Store) learnFromFilenames() []string {
	if !s.learning {
		return nil
	}

	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		s.logger.Warn("output dir unreadable for tag learning", "error", err)
		return nil
	}

	var learned []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, tag := range naming.ExtractTags(entry.Name()) {
			if seen[tag] || !IsValidTag(tag) {
				continue
			}
			seen[tag] = true
			learned = append(learned, tag)
		}
	}
	sort.Strings(learned)
	return learned
}

// IsValidTag applies the tag validity rules: 2-30 characters from letters
// of any script, digits, hyphens, slashes or underscores, excluding the
// reserved names.
func IsValidTag(tag string) bool {
	n := utf8.RuneCountInString(tag)
	if n < 2 || n > 30 {
		return false
	}
	for _, r := range tag {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '/' || r == '_' {
			continue
		}
		return false
	}
	return !reservedNames[strings.ToLower(tag)]
}
