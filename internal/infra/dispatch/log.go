package dispatch

import (
	"context"
	"log/slog"

	"notigate/internal/domain/notification"
)

var _ notification.Dispatcher = (*Log)(nil)

// Log is a Dispatcher that records each delivery as a structured log
// entry instead of calling an external provider. Deployments that fan
// notifications out through log shipping use it as the real delegate;
// everyone else uses it as a safe development target.
type Log struct{}

// NewLog creates a log-backed dispatcher.
func NewLog() *Log {
	return &Log{}
}

// Dispatch logs one entry per recipient and never fails.
func (d *Log) Dispatch(ctx context.Context, n notification.Notification, recipients ...notification.Recipient) error {
	for _, r := range recipients {
		slog.Info("notification dispatched",
			"type", n.Type(),
			"recipient", notification.RecipientID(r),
		)
	}
	return nil
}
