package notification

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Recipient is any value a notification can target. The gate never needs
// to deliver to a recipient itself, only to identify it; identity resolves
// through the capability chain in RecipientID.
type Recipient any

// RateLimitKeyer overrides the identifier a recipient is throttled under.
// Recipients implement it to take part in finer-grained throttling, e.g.
// per-tenant keys.
type RateLimitKeyer interface {
	RateLimitKey() string
}

// Identifiable exposes a recipient's primary identity, such as a user ID
// or account number.
type Identifiable interface {
	Identity() string
}

// Address is a bare addressable recipient: an email address, a phone
// number, a device token. Its identity is the address itself.
type Address string

// Identity returns the lower-cased address.
func (a Address) Identity() string { return strings.ToLower(string(a)) }

// RecipientID resolves the identifier a recipient is rate limited under.
// The chain, in priority order: RateLimitKey, Identity, and finally a
// SHA-256 hash of the recipient's canonical JSON form. Blank values fall
// through to the next step, so resolution never fails — two recipients
// that serialize identically throttle as one.
func RecipientID(r Recipient) string {
	if k, ok := r.(RateLimitKeyer); ok {
		if key := k.RateLimitKey(); key != "" {
			return key
		}
	}
	if id, ok := r.(Identifiable); ok {
		if identity := id.Identity(); identity != "" {
			return identity
		}
	}
	return contentHash(r)
}

// contentHash fingerprints an unkeyed recipient. json.Marshal is
// deterministic for maps and structs; values it cannot marshal fall back
// to their Go-syntax representation.
func contentHash(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = []byte(fmt.Sprintf("%T%#v", v, v))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
