package claimstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notigate/internal/domain/notification"
)

var _ notification.ClaimStore = (*Memory)(nil)

type claim struct {
	count     int
	expiresAt time.Time
}

// Memory counts claims in process memory. Windows are local to one
// instance, which is fine for single-node deployments and tests; use the
// Redis store when several instances must share windows.
type Memory struct {
	mu     sync.Mutex
	claims map[string]*claim
}

// NewMemory creates an in-memory claim store.
func NewMemory() *Memory {
	return &Memory{claims: make(map[string]*claim)}
}

// TryClaim increments the counter for key and reports whether the caller
// stayed within limit. The window starts at the first claim and is not
// extended by later ones.
func (s *Memory) TryClaim(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[key]
	if !ok || now.After(c.expiresAt) {
		s.claims[key] = &claim{count: 1, expiresAt: now.Add(ttl)}
		return limit >= 1, nil
	}

	c.count++
	return c.count <= limit, nil
}

// Run evicts expired claims on a timer until the context is cancelled.
// Call it in a goroutine. TryClaim is correct without it; the sweep only
// bounds memory growth for keys that are never claimed again.
func (s *Memory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	slog.Info("claim janitor started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("claim janitor stopped")
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep removes every claim whose window has passed.
func (s *Memory) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.claims {
		if now.After(c.expiresAt) {
			delete(s.claims, key)
		}
	}
}
