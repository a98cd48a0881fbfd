package domain

import "strings"

// VocabularySnapshot is the tag set fetched once per batch, split by origin
// for the audit snapshot. Tags is the merged, sorted, deduplicated union and
// always contains the fallback tag.
type VocabularySnapshot struct {
	Tags     []string `json:"tags"`
	FromFile []string `json:"tags_from_file"`
	Learned  []string `json:"tags_learned"`
}

// Contains reports case-insensitive membership; the fallback tag is always a
// member even when absent from Tags.
func (s VocabularySnapshot) Contains(name string) bool {
	if strings.EqualFold(name, FallbackTag) {
		return true
	}
	for _, t := range s.Tags {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
