package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	// DefaultExtension is used when the caller does not pick a format.
	DefaultExtension = ".txt"

	// collisionLimit bounds the counter suffix search before falling back
	// to a timestamp suffix, which guarantees termination.
	collisionLimit = 1000
)

var (
	bracketTag = regexp.MustCompile(`\[([a-z0-9-]+)\]`)
	nameShape  = regexp.MustCompile(`^((?:\[[a-z0-9-]+\])+)_([^.]+)(\.[A-Za-z0-9]+)$`)
)

// Builder assembles collision-free output names of the form
// [tag1][tag2]_summary.ext inside a single target directory. The existence
// check is only safe under one writer per directory at a time.
type Builder struct {
	targetDir  string
	maxTags    int
	maxSummary int

	now func() time.Time
}

func NewBuilder(targetDir string, maxTags, maxSummaryLen int) *Builder {
	if maxTags <= 0 {
		maxTags = 3
	}
	if maxSummaryLen <= 0 {
		maxSummaryLen = 30
	}
	return &Builder{
		targetDir:  targetDir,
		maxTags:    maxTags,
		maxSummary: maxSummaryLen,
		now:        time.Now,
	}
}

// Build sanitizes the tags and summary and returns a name that does not
// exist in the target directory at call time. Tags are taken in input order
// (primary first by convention) up to the configured maximum.
func (b *Builder) Build(tags []string, summary, extension string) (string, error) {
	if extension == "" {
		extension = DefaultExtension
	}

	sanitized := make([]string, 0, b.maxTags)
	for _, tag := range tags {
		if len(sanitized) == b.maxTags {
			break
		}
		if clean := SanitizeTag(tag); clean != "" {
			sanitized = append(sanitized, clean)
		}
	}
	if len(sanitized) == 0 {
		sanitized = []string{fallbackTagSlug}
	}

	prefix := ""
	for _, tag := range sanitized {
		prefix += "[" + tag + "]"
	}
	base := prefix + "_" + SanitizeSummary(summary, b.maxSummary)

	candidate := base + extension
	if !b.exists(candidate) {
		return candidate, nil
	}
	for counter := 1; counter <= collisionLimit; counter++ {
		candidate = fmt.Sprintf("%s-%d%s", base, counter, extension)
		if !b.exists(candidate) {
			return candidate, nil
		}
	}

	// Counter space exhausted; a second-resolution timestamp always wins.
	stamp := b.now().UTC().Format("20060102150405")
	return fmt.Sprintf("%s-%s%s", base, stamp, extension), nil
}

func (b *Builder) exists(name string) bool {
	_, err := os.Stat(filepath.Join(b.targetDir, name))
	return err == nil
}

// ExtractTags recovers the bracketed tag tokens from a generated name.
func ExtractTags(filename string) []string {
	matches := bracketTag.FindAllStringSubmatch(filename, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractSummary recovers the summary segment from a generated name.
func ExtractSummary(filename string) (string, bool) {
	m := nameShape.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[2], true
}
