package notifier

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/amishk599/coldreach/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier records each composed draft as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each draft via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the job URL, role, matched links and body size.
// Returns nil (logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, d model.EmailDraft) error {
	n.logger.Info("draft composed",
		"url", d.JobURL,
		"role", d.Job.Role,
		"skills", d.Job.Skills,
		"links", d.Links,
		"body_chars", utf8.RuneCountInString(d.Body),
	)
	return nil
}
