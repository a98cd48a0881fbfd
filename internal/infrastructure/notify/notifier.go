package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

// Provider delivers one rendered message somewhere. Implementations return
// an error for logging only; delivery is best effort.
type Provider interface {
	Name() string
	Send(ctx context.Context, subject, message string) error
}

// Manager fans notifications out to every registered provider. A provider
// failure is logged and never fails the item that triggered it.
type Manager struct {
	providers []Provider
	logger    *slog.Logger
}

func NewManager(logger *slog.Logger, providers ...Provider) *Manager {
	return &Manager{providers: providers, logger: logger}
}

func (m *Manager) NotifySuccess(ctx context.Context, n domain.SuccessNotification) {
	subject := fmt.Sprintf("OCRBox: processed %s", n.Filename)

	var b strings.Builder
	fmt.Fprintf(&b, "Processed %s", n.Filename)
	if n.Source != "" {
		fmt.Fprintf(&b, " (source %s)", n.Source)
	}
	fmt.Fprintf(&b, "\nOutput: %s", n.OutputName)
	if len(n.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(n.Tags, ", "))
	}
	if n.Excerpt != "" {
		fmt.Fprintf(&b, "\n\n%s", n.Excerpt)
	}

	m.send(ctx, subject, b.String())
}

func (m *Manager) NotifyError(ctx context.Context, n domain.ErrorNotification) {
	subject := fmt.Sprintf("OCRBox: failed %s", n.Filename)

	var b strings.Builder
	fmt.Fprintf(&b, "Failed to process %s", n.Filename)
	if n.Source != "" {
		fmt.Fprintf(&b, " (source %s)", n.Source)
	}
	fmt.Fprintf(&b, "\nError: %s", n.Message)

	m.send(ctx, subject, b.String())
}

func (m *Manager) send(ctx context.Context, subject, message string) {
	for _, p := range m.providers {
		if err := p.Send(ctx, subject, message); err != nil {
			m.logger.Warn("notification delivery failed",
				"provider", p.Name(), "subject", subject, "error", err)
		}
	}
}
