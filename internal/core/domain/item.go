package domain

import "time"

type RecordStatus string

const (
	StatusSuccess RecordStatus = "success"
	StatusError   RecordStatus = "error"
)

// FallbackTag is the tag every classification degrades to when nothing
// usable survives validation or filtering.
const FallbackTag = "uncategorized"

// InputItem is one discovered image handed to the pipeline. Identifier is
// the idempotency key minted by the watcher (filename plus modification
// time), so re-uploading the same file yields a fresh identifier.
type InputItem struct {
	Identifier   string    `json:"identifier"`
	Filename     string    `json:"filename"`
	StorageKey   string    `json:"storage_key"`
	ContentHash  string    `json:"content_hash"`
	SourceID     string    `json:"source_id,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type ProposedTag struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
	Primary    bool   `json:"primary"`
}

// ClassificationResult is the validated shape of one model response.
// Tags is never empty: the validator guarantees at least the fallback tag.
type ClassificationResult struct {
	Text    string        `json:"text"`
	Summary string        `json:"summary"`
	Tags    []ProposedTag `json:"tags"`
}

// UncategorizedTag returns the synthetic fallback tag.
func UncategorizedTag() ProposedTag {
	return ProposedTag{Name: FallbackTag, Confidence: 100, Primary: true}
}

// ProcessingRecord is one row of the idempotency ledger. Identifier is
// written exactly once; a second mark for the same identifier is a conflict.
type ProcessingRecord struct {
	Identifier      string       `json:"identifier"`
	Status          RecordStatus `json:"status"`
	ContentHash     string       `json:"content_hash,omitempty"`
	SourceID        string       `json:"source_id,omitempty"`
	OutputReference string       `json:"output_reference,omitempty"`
	ErrorDetail     string       `json:"error_detail,omitempty"`
	ProcessedAt     time.Time    `json:"processed_at"`
}

// Outcome is the per-item result returned by the coordinator.
type Outcome struct {
	Identifier string `json:"identifier"`
	Skipped    bool   `json:"skipped"`
	Success    bool   `json:"success"`
	Text       string `json:"text,omitempty"`
	OutputName string `json:"output_name,omitempty"`
	Err        error  `json:"-"`
}
