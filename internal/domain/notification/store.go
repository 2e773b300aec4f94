package notification

import (
	"context"
	"time"
)

// ClaimStore is the cache the gate claims send slots from. Any TTL-capable
// key-value store qualifies; implementations live in infra/claimstore/.
type ClaimStore interface {
	// TryClaim atomically records an attempt against key and reports
	// whether it falls within limit. The first attempt of a window starts
	// the ttl; later attempts must not extend it. Under concurrent claims
	// for one key, at most limit callers may see true per window.
	TryClaim(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error)
}
