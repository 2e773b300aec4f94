package notification

import "strings"

// KeyFor derives the cache key a (notification, recipient) pair is
// throttled under: the key prefix, the notification type name, and the
// resolved recipient identifier, followed by any custom key parts and,
// when uniquePayload is set, a fingerprint of the notification's payload.
// Parts join with "." and the whole key is lower-cased.
//
// KeyFor is a pure function of its inputs: identical inputs always yield
// an identical key. Blank parts are dropped so an empty custom-part list
// leaves no separator artifacts.
func KeyFor(prefix string, n Notification, r Recipient, uniquePayload bool) string {
	parts := make([]string, 0, 6)
	parts = append(parts, prefix, n.Type(), RecipientID(r))

	if ck, ok := r.(CustomKeyer); ok {
		parts = append(parts, ck.CustomKeyParts()...)
	}
	if ck, ok := n.(CustomKeyer); ok {
		parts = append(parts, ck.CustomKeyParts()...)
	}

	if uniquePayload {
		parts = append(parts, payloadFingerprint(n))
	}

	joined := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			joined = append(joined, p)
		}
	}
	return strings.ToLower(strings.Join(joined, "."))
}

// payloadFingerprint returns the notification's own fingerprint when it
// supplies one, else a hash of its canonical JSON form.
func payloadFingerprint(n Notification) string {
	if f, ok := n.(Fingerprinter); ok {
		if fp := f.Fingerprint(); fp != "" {
			return fp
		}
	}
	return contentHash(n)
}
