package notification

import (
	"context"
	"time"
)

// RateLimitReached is emitted once for every suppressed
// (notification, recipient) pair.
type RateLimitReached struct {
	Notification Notification
	Recipient    Recipient
	Key          string
	At           time.Time
}

// EventSink receives suppression events. Emission must not block dispatch
// for long and can never fail it; implementations live in infra/eventsink/.
type EventSink interface {
	Emit(ctx context.Context, evt RateLimitReached)
}

// SinkFunc adapts a plain function to the EventSink interface.
type SinkFunc func(ctx context.Context, evt RateLimitReached)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, evt RateLimitReached) { f(ctx, evt) }
