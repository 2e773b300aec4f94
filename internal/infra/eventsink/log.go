package eventsink

import (
	"context"
	"log/slog"

	"notigate/internal/domain/notification"
)

var _ notification.EventSink = (*Log)(nil)

// Log records rate-limit events as structured log entries. It is the
// reference sink; deployments that feed suppression data into metrics or
// audit pipelines swap in their own implementation.
type Log struct{}

// NewLog creates a log-backed event sink.
func NewLog() *Log {
	return &Log{}
}

// Emit writes one notice-level entry per suppressed delivery.
func (s *Log) Emit(ctx context.Context, evt notification.RateLimitReached) {
	slog.Log(ctx, notification.LevelNotice, "rate limit event",
		"type", evt.Notification.Type(),
		"recipient", notification.RecipientID(evt.Recipient),
		"key", evt.Key,
		"at", evt.At,
	)
}
