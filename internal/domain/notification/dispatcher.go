package notification

import "context"

// Dispatcher is the notification dispatch entry point. The gate both
// implements it and wraps one, so it can stand in front of any delivery
// path: a channel router, a queue producer, a test double.
type Dispatcher interface {
	// Dispatch delivers one notification to the given recipients.
	Dispatch(ctx context.Context, n Notification, recipients ...Recipient) error
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, n Notification, recipients ...Recipient) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, n Notification, recipients ...Recipient) error {
	return f(ctx, n, recipients...)
}
