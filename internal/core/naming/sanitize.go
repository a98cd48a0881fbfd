package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	fallbackSlug    = "untitled"
	fallbackTagSlug = "uncategorized"
	minSummaryChars = 5
)

// asciiFold decomposes to NFD and strips combining marks, so accented
// letters collapse to their unaccented base ("é" -> "e").
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// SanitizeTag maps a raw tag to its filesystem-safe form: slashes flatten
// to hyphens, accents fold to ASCII, everything outside [a-z0-9-] is
// dropped, runs of hyphens collapse. Idempotent. May return "".
func SanitizeTag(tag string) string {
	s := strings.TrimSpace(tag)
	s = strings.ReplaceAll(s, "/", "-")
	return squeeze(toASCIILower(s))
}

// SanitizeSummary applies the tag pipeline with two extras: whitespace and
// underscores become hyphens first, and the result is truncated to maxLen
// without a trailing hyphen. Anything under five characters becomes the
// "untitled" slug. Idempotent for any maxLen >= len(result).
func SanitizeSummary(summary string, maxLen int) string {
	s := strings.TrimSpace(summary)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return '-'
		}
		return r
	}, s)
	s = squeeze(toASCIILower(s))
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if len(s) < minSummaryChars {
		return fallbackSlug
	}
	return s
}

func toASCIILower(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// squeeze collapses hyphen runs and trims leading/trailing hyphens.
func squeeze(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
