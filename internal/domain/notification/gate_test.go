package notification

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notigate/internal/common"
)

// countingStore counts claims per key with no expiry. Window expiry is the
// claim store's concern and is covered by its own tests.
type countingStore struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newCountingStore() *countingStore {
	return &countingStore{counts: make(map[string]int)}
}

func (s *countingStore) TryClaim(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key] <= limit, nil
}

// recordingDispatcher records every forwarded batch.
type recordingDispatcher struct {
	calls [][]Recipient
	types []string
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n Notification, recipients ...Recipient) error {
	d.calls = append(d.calls, recipients)
	d.types = append(d.types, n.Type())
	return d.err
}

// recordingSink collects suppression events.
type recordingSink struct {
	events []RateLimitReached
}

func (s *recordingSink) Emit(_ context.Context, evt RateLimitReached) {
	s.events = append(s.events, evt)
}

func quietPolicy() Policy {
	return Policy{
		KeyPrefix:   "app",
		MaxAttempts: 1,
		Cooldown:    10 * time.Second,
		FailOpen:    true,
	}
}

func TestGateForwardsFirstAndSuppressesRepeat(t *testing.T) {
	delegate := &recordingDispatcher{}
	sink := &recordingSink{}
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), sink)

	n := testNotification{Payload: "hi"}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r), "suppression is silent for the caller")

	require.Len(t, delegate.calls, 1, "the repeat inside the window must not reach the delegate")
	assert.Equal(t, []Recipient{r}, delegate.calls[0])

	require.Len(t, sink.events, 1)
	assert.Equal(t, "app.testnotification.42", sink.events[0].Key)
}

func TestGateForwardsOnlyEligibleSubsetInOrder(t *testing.T) {
	delegate := &recordingDispatcher{}
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), nil)

	n := testNotification{}
	a, b, c := numberedRecipient{id: 1}, numberedRecipient{id: 2}, numberedRecipient{id: 3}

	// Claim b's slot first, then send to all three.
	require.NoError(t, gate.Dispatch(context.Background(), n, b))
	require.NoError(t, gate.Dispatch(context.Background(), n, a, b, c))

	require.Len(t, delegate.calls, 2)
	assert.Equal(t, []Recipient{a, c}, delegate.calls[1], "survivors keep their original order")
}

func TestGateSkipsDelegateWhenEveryoneIsSuppressed(t *testing.T) {
	delegate := &recordingDispatcher{}
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r))

	assert.Len(t, delegate.calls, 1, "an empty batch must not be forwarded")
}

func TestGateWindowsAreIndependentPerRecipientAndType(t *testing.T) {
	delegate := &recordingDispatcher{}
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), nil)

	welcome := taggedNotification{kind: "welcome"}
	receipt := taggedNotification{kind: "receipt"}

	require.NoError(t, gate.Dispatch(context.Background(), welcome, numberedRecipient{id: 1}))
	require.NoError(t, gate.Dispatch(context.Background(), welcome, numberedRecipient{id: 2}))
	require.NoError(t, gate.Dispatch(context.Background(), receipt, numberedRecipient{id: 1}))

	assert.Len(t, delegate.calls, 3, "another recipient or type must not be affected by a claimed window")
}

func TestGateHonorsAttemptBudget(t *testing.T) {
	delegate := &recordingDispatcher{}
	pol := quietPolicy()
	pol.MaxAttempts = 3
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(pol), nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Dispatch(context.Background(), n, r))
	}
	require.NoError(t, gate.Dispatch(context.Background(), n, r))

	assert.Len(t, delegate.calls, 3, "the fourth attempt exceeds the budget")
}

func TestGateClaimSurvivesDeliveryFailure(t *testing.T) {
	boom := errors.New("smtp connection refused")
	delegate := &recordingDispatcher{err: boom}
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	err := gate.Dispatch(context.Background(), n, r)
	require.ErrorIs(t, err, boom, "delegate errors pass through unchanged")

	// The claim committed before delivery, so the failed attempt still
	// consumed the window.
	delegate.err = nil
	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	assert.Len(t, delegate.calls, 1)
}

func TestGateFailsOpenOnStoreError(t *testing.T) {
	store := newCountingStore()
	store.err = errors.New("connection pool exhausted")
	delegate := &recordingDispatcher{}
	sink := &recordingSink{}
	gate := NewGate(delegate, store, StaticPolicy(quietPolicy()), sink)

	require.NoError(t, gate.Dispatch(context.Background(), testNotification{}, numberedRecipient{id: 42}))

	assert.Len(t, delegate.calls, 1, "fail-open lets delivery through")
	assert.Empty(t, sink.events, "a store outage is not a limit hit")
}

func TestGateFailsClosedOnStoreError(t *testing.T) {
	store := newCountingStore()
	store.err = errors.New("connection pool exhausted")
	delegate := &recordingDispatcher{}
	sink := &recordingSink{}
	pol := quietPolicy()
	pol.FailOpen = false
	gate := NewGate(delegate, store, StaticPolicy(pol), sink)

	require.NoError(t, gate.Dispatch(context.Background(), testNotification{}, numberedRecipient{id: 42}))

	assert.Empty(t, delegate.calls, "fail-closed holds delivery back")
	assert.Empty(t, sink.events, "a store outage is not a limit hit")
}

func TestGateRejectsInvalidPolicy(t *testing.T) {
	delegate := &recordingDispatcher{}
	pol := quietPolicy()
	pol.MaxAttempts = 0
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(pol), nil)

	err := gate.Dispatch(context.Background(), testNotification{}, numberedRecipient{id: 42})

	var cfgErr *common.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, delegate.calls)
}

func TestGateReadsPolicyOnEveryDispatch(t *testing.T) {
	delegate := &recordingDispatcher{}
	store := newCountingStore()

	pol := quietPolicy()
	gate := NewGate(delegate, store, func() Policy { return pol }, nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.Len(t, delegate.calls, 1)

	// Raising the budget at runtime takes effect on the next call.
	pol.MaxAttempts = 5
	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	assert.Len(t, delegate.calls, 2)
}

func TestGateUniquePayloadsGetSeparateWindows(t *testing.T) {
	delegate := &recordingDispatcher{}
	pol := quietPolicy()
	pol.UniquePayloads = true
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(pol), nil)

	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), testNotification{Payload: "first"}, r))
	require.NoError(t, gate.Dispatch(context.Background(), testNotification{Payload: "second"}, r))
	require.NoError(t, gate.Dispatch(context.Background(), testNotification{Payload: "first"}, r))

	assert.Len(t, delegate.calls, 2, "only the repeated payload is suppressed")
}

func TestGateEventCarriesPair(t *testing.T) {
	delegate := &recordingDispatcher{}

	var events []RateLimitReached
	sink := SinkFunc(func(_ context.Context, evt RateLimitReached) {
		events = append(events, evt)
	})
	gate := NewGate(delegate, newCountingStore(), StaticPolicy(quietPolicy()), sink)

	n := testNotification{Payload: "hi"}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r))

	require.Len(t, events, 1)
	evt := events[0]
	assert.Equal(t, "TestNotification", evt.Notification.Type())
	assert.Equal(t, r, evt.Recipient)
	assert.Equal(t, "app.testnotification.42", evt.Key)
	assert.False(t, evt.At.IsZero())
}

func TestGateLogsSuppressionAtNoticeLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelNotice})))
	defer slog.SetDefault(prev)

	pol := quietPolicy()
	pol.LogSkipped = true
	gate := NewGate(&recordingDispatcher{}, newCountingStore(), StaticPolicy(pol), nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r))

	out := buf.String()
	assert.Contains(t, out, "skipping notification: rate limit reached")
	assert.Contains(t, out, "app.testnotification.42")
}

func TestGateSuppressionLogCanBeDisabled(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelNotice})))
	defer slog.SetDefault(prev)

	gate := NewGate(&recordingDispatcher{}, newCountingStore(), StaticPolicy(quietPolicy()), nil)

	n := testNotification{}
	r := numberedRecipient{id: 42}

	require.NoError(t, gate.Dispatch(context.Background(), n, r))
	require.NoError(t, gate.Dispatch(context.Background(), n, r))

	assert.NotContains(t, buf.String(), "skipping notification")
}
