package notification

import (
	"time"

	"notigate/internal/common"
)

// Policy is the gate's rate-limiting configuration. The gate reads it
// through a PolicySource on every dispatch rather than caching it at
// startup, so runtime configuration changes apply on the next call.
type Policy struct {
	// KeyPrefix is the first part of every rate-limit key.
	KeyPrefix string

	// MaxAttempts is how many sends a key permits per window before
	// suppression. Callers must not assume a hard 1-per-window rule.
	MaxAttempts int

	// Cooldown is the suppression window. A claimed key becomes eligible
	// again only once the window expires.
	Cooldown time.Duration

	// LogSkipped emits a notice-level log record for every suppression,
	// in addition to the RateLimitReached event.
	LogSkipped bool

	// UniquePayloads folds a fingerprint of the notification's payload
	// into the key, so distinct payloads to the same recipient are
	// tracked independently.
	UniquePayloads bool

	// FailOpen decides what happens when the claim store is unreachable:
	// true treats the recipient as eligible (delivery outranks strict
	// throttling), false suppresses.
	FailOpen bool
}

// PolicySource supplies the current Policy at dispatch time.
type PolicySource func() Policy

// StaticPolicy returns a PolicySource that always yields p. Useful for
// embedders and tests that do not carry live configuration.
func StaticPolicy(p Policy) PolicySource {
	return func() Policy { return p }
}

// Validate rejects malformed policies: an empty key prefix, a
// non-positive attempt budget, or a non-positive cooldown window.
func (p Policy) Validate() error {
	if p.KeyPrefix == "" {
		return common.NewConfigError("gate.key_prefix must not be empty")
	}
	if p.MaxAttempts < 1 {
		return common.NewConfigError("gate.max_attempts must be at least 1")
	}
	if p.Cooldown <= 0 {
		return common.NewConfigError("gate.rate_limit_seconds must be positive")
	}
	return nil
}
