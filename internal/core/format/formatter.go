package format

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

type Kind string

const (
	Plaintext Kind = "plaintext"
	Markdown  Kind = "markdown"
)

// ParseKind maps a config value to a format, defaulting to plaintext.
func ParseKind(s string) Kind {
	if Kind(s) == Markdown {
		return Markdown
	}
	return Plaintext
}

type frontmatter struct {
	Summary    string         `yaml:"summary"`
	Tags       []string       `yaml:"tags"`
	Confidence map[string]int `yaml:"confidence,omitempty"`
	Created    string         `yaml:"created"`
}

// Formatter renders the final artifact body for a validated result.
type Formatter struct {
	kind Kind
	now  func() time.Time
}

func New(kind Kind) *Formatter {
	return &Formatter{kind: kind, now: time.Now}
}

// Extension returns the artifact extension for this format.
func (f *Formatter) Extension() string {
	if f.kind == Markdown {
		return ".md"
	}
	return ".txt"
}

// Render returns the file content. Plaintext is the extracted text as-is;
// markdown prepends a YAML frontmatter block with summary, tag list and a
// per-tag confidence map.
func (f *Formatter) Render(result domain.ClassificationResult, tags []domain.ProposedTag) ([]byte, error) {
	if f.kind != Markdown {
		return []byte(result.Text), nil
	}

	fm := frontmatter{
		Summary: result.Summary,
		Tags:    make([]string, 0, len(tags)),
		Created: f.now().UTC().Format(time.RFC3339),
	}
	confidence := make(map[string]int, len(tags))
	for _, tag := range tags {
		fm.Tags = append(fm.Tags, tag.Name)
		confidence[tag.Name] = tag.Confidence
	}
	if len(confidence) > 0 {
		fm.Confidence = confidence
	}

	encoded, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}
	body := fmt.Sprintf("---\n%s---\n\n%s", encoded, result.Text)
	return []byte(body), nil
}
