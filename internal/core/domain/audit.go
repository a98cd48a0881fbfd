package domain

import "time"

// ProcessingAudit is the per-item processing record written on every
// terminal outcome, success or error.
type ProcessingAudit struct {
	InputFile     string    `json:"input_file"`
	OutputFile    string    `json:"output_file,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
	DurationMS    int64     `json:"processing_duration_ms"`
	Status        string    `json:"status"`
	SelectedTags  []string  `json:"selected_tags"`
	Confidences   []int     `json:"confidence_scores"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// ErrorAudit carries the error type, message and stack context for a
// permanently failed item.
type ErrorAudit struct {
	InputFile    string    `json:"input_file"`
	ErrorAt      time.Time `json:"error_at"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	StackContext string    `json:"stack_context,omitempty"`
	RetryAttempt int       `json:"retry_attempt,omitempty"`
}

// SuccessNotification is the payload handed to notification providers when
// an item completes.
type SuccessNotification struct {
	Filename   string
	Excerpt    string
	OutputName string
	Tags       []string
	Source     string
}

// ErrorNotification is the payload handed to providers when an item fails
// permanently.
type ErrorNotification struct {
	Filename string
	Message  string
	Source   string
}
