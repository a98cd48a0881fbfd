package classify

import "github.com/kirillkom/ocrbox/internal/core/domain"

// Thresholds holds the independently tunable confidence floors.
type Thresholds struct {
	Primary    int
	Additional int
}

func DefaultThresholds() Thresholds {
	return Thresholds{Primary: 80, Additional: 70}
}

// FilterTags keeps a primary tag iff its confidence meets the primary
// threshold and an additional tag iff it meets the additional threshold.
// Input order is preserved. The result is never empty: when everything is
// discarded the synthetic uncategorized tag is emitted instead.
func FilterTags(tags []domain.ProposedTag, t Thresholds) []domain.ProposedTag {
	kept := make([]domain.ProposedTag, 0, len(tags))
	for _, tag := range tags {
		threshold := t.Additional
		if tag.Primary {
			threshold = t.Primary
		}
		if tag.Confidence >= threshold {
			kept = append(kept, tag)
		}
	}
	if len(kept) == 0 {
		return []domain.ProposedTag{domain.UncategorizedTag()}
	}
	return primaryFirst(kept)
}

// primaryFirst moves the surviving primary tag to the front, keeping the
// relative order of the rest.
func primaryFirst(tags []domain.ProposedTag) []domain.ProposedTag {
	for i, tag := range tags {
		if !tag.Primary {
			continue
		}
		if i == 0 {
			return tags
		}
		out := make([]domain.ProposedTag, 0, len(tags))
		out = append(out, tag)
		out = append(out, tags[:i]...)
		out = append(out, tags[i+1:]...)
		return out
	}
	return tags
}
