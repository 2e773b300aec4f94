package notification

import (
	"context"
	"log/slog"
	"time"
)

// LevelNotice is the severity suppression records are logged at. It sits
// between slog's built-in Info and Warn levels.
const LevelNotice = slog.Level(2)

var _ Dispatcher = (*Gate)(nil)

// Gate enforces a per-recipient, per-notification-type rate limit in
// front of a delegate Dispatcher. It is itself a Dispatcher, so it drops
// in wherever the delegate was wired.
//
// Each recipient is judged independently: the gate claims a cache slot
// for the recipient's key and forwards only the recipients whose claim
// succeeded. The claim commits before delivery, so a failed delivery
// still consumes the window.
type Gate struct {
	delegate Dispatcher
	store    ClaimStore
	policy   PolicySource
	events   EventSink
}

// NewGate creates a rate-limit gate in front of delegate. events may be
// nil when no sink wants suppression events.
func NewGate(delegate Dispatcher, store ClaimStore, policy PolicySource, events EventSink) *Gate {
	return &Gate{
		delegate: delegate,
		store:    store,
		policy:   policy,
		events:   events,
	}
}

// Dispatch forwards the subset of recipients that pass the rate limit to
// the delegate, in recipient order. Suppressed recipients are a silent
// no-op for the caller: they produce a RateLimitReached event (and a
// notice log record when the policy asks for one) but never an error.
// When every recipient is suppressed the delegate is not invoked at all.
func (g *Gate) Dispatch(ctx context.Context, n Notification, recipients ...Recipient) error {
	pol := g.policy()
	if err := pol.Validate(); err != nil {
		return err
	}

	var pass []Recipient
	for _, r := range recipients {
		key := KeyFor(pol.KeyPrefix, n, r, pol.UniquePayloads)

		allowed, err := g.store.TryClaim(ctx, key, pol.MaxAttempts, pol.Cooldown)
		if err != nil {
			// Store trouble must not take notification delivery down with
			// it. The policy decides which way to fail; either way this is
			// an outage, not a limit hit, so no suppression event fires.
			slog.Error("rate limit claim failed",
				"key", key,
				"fail_open", pol.FailOpen,
				"error", err,
			)
			if pol.FailOpen {
				pass = append(pass, r)
			}
			continue
		}

		if !allowed {
			g.suppress(ctx, n, r, key, pol)
			continue
		}
		pass = append(pass, r)
	}

	if len(pass) == 0 {
		return nil
	}
	return g.delegate.Dispatch(ctx, n, pass...)
}

// suppress records one dropped (notification, recipient) pair.
func (g *Gate) suppress(ctx context.Context, n Notification, r Recipient, key string, pol Policy) {
	if g.events != nil {
		g.events.Emit(ctx, RateLimitReached{
			Notification: n,
			Recipient:    r,
			Key:          key,
			At:           time.Now(),
		})
	}

	if pol.LogSkipped {
		slog.Log(ctx, LevelNotice, "skipping notification: rate limit reached",
			"type", n.Type(),
			"recipient", RecipientID(r),
			"key", key,
		)
	}
}
