package classify

import (
	"encoding/json"
	"strings"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

const (
	fallbackSummary = "Untitled"
	fallbackText    = "No text detected"
)

// rawResult mirrors the JSON shape the model is prompted to return. Fields
// are pointers so a missing key is distinguishable from a zero value.
type rawResult struct {
	Text    *string  `json:"text"`
	Summary *string  `json:"summary"`
	Tags    []rawTag `json:"tags"`
}

type rawTag struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
	Primary    bool   `json:"primary"`
}

// Validate turns a raw, possibly malformed model response into a well-formed
// ClassificationResult. It never fails: malformed or out-of-vocabulary input
// degrades to the uncategorized fallback so downstream components only ever
// see valid data.
func Validate(raw string, known domain.VocabularySnapshot) domain.ClassificationResult {
	payload := extractJSONObject(stripCodeFences(raw))

	var parsed rawResult
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return fallbackResult(raw)
	}
	if parsed.Text == nil || parsed.Summary == nil || parsed.Tags == nil {
		out := fallbackResult(raw)
		if parsed.Text != nil {
			out.Text = *parsed.Text
		}
		return out
	}

	tags := make([]domain.ProposedTag, 0, len(parsed.Tags))
	for _, t := range parsed.Tags {
		if !known.Contains(t.Name) {
			continue
		}
		tags = append(tags, domain.ProposedTag{
			Name:       t.Name,
			Confidence: clampConfidence(t.Confidence),
			Primary:    t.Primary,
		})
	}
	if len(tags) == 0 {
		tags = []domain.ProposedTag{domain.UncategorizedTag()}
	}
	ensurePrimary(tags)

	return domain.ClassificationResult{
		Text:    *parsed.Text,
		Summary: *parsed.Summary,
		Tags:    tags,
	}
}

func fallbackResult(raw string) domain.ClassificationResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		text = fallbackText
	}
	return domain.ClassificationResult{
		Text:    text,
		Summary: fallbackSummary,
		Tags:    []domain.ProposedTag{domain.UncategorizedTag()},
	}
}

// ensurePrimary coerces the first tag to primary when none is marked.
func ensurePrimary(tags []domain.ProposedTag) {
	for _, t := range tags {
		if t.Primary {
			return
		}
	}
	tags[0].Primary = true
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language marker.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		// Drop a language tag like "json" on the fence line.
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
