package gemini

import "strings"

// buildExtractionPrompt asks for OCR text, a short summary and confidence
// ranked tags drawn only from the supplied vocabulary. The response shape
// matches what the validator expects; anything else degrades to fallback.
func buildExtractionPrompt(availableTags []string) string {
	var b strings.Builder
	b.WriteString(`Extract all text from this image, preserving layout where possible.
Then classify the content.

Return a strict JSON object with exactly these keys:
  "text": the full extracted text (use "No text detected" if the image has none),
  "summary": a short title of at most a few words describing the content,
  "tags": an array of objects {"name": string, "confidence": integer 0-100, "primary": boolean}.

Exactly one tag must have "primary": true. Only use tag names from this list:
`)
	for _, tag := range availableTags {
		b.WriteString("  - ")
		b.WriteString(tag)
		b.WriteString("\n")
	}
	b.WriteString("\nNo markdown fences, no extra keys, no commentary.")
	return b.String()
}
