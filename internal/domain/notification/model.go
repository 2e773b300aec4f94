package notification

// Notification is the minimal contract a message must satisfy to flow
// through the gate: a stable type name, used as the second part of every
// rate-limit key.
type Notification interface {
	// Type returns the notification's type name (e.g. "order_shipped").
	// It must be the same string for every instance of the same kind of
	// notification.
	Type() string
}

// Fingerprinter lets a notification supply the stable serialization used
// when unique-notification limiting is enabled. Without it the gate falls
// back to hashing the notification's canonical JSON form, which is only
// stable if the payload marshals deterministically.
type Fingerprinter interface {
	Fingerprint() string
}

// CustomKeyer contributes extra rate-limit key parts. Both notifications
// and recipients may implement it; recipient parts come before
// notification parts in the key.
type CustomKeyer interface {
	CustomKeyParts() []string
}

// Message is a concrete Notification built from an API send request.
type Message struct {
	Kind     string
	Data     map[string]any
	KeyParts []string
}

// Type returns the message's notification type name.
func (m Message) Type() string { return m.Kind }

// CustomKeyParts returns the caller-supplied key parts, if any.
func (m Message) CustomKeyParts() []string { return m.KeyParts }

// SendRequest is the API request payload for dispatching a notification.
type SendRequest struct {
	Type     string         `json:"type" binding:"required"`
	To       []string       `json:"to" binding:"required,min=1"`
	Data     map[string]any `json:"data"`
	KeyParts []string       `json:"key_parts"`
}

// SendResponse is the API response payload after a dispatch call.
// Suppressed recipients are not an error; they surface through the
// suppression event and log, not through this payload.
type SendResponse struct {
	Type       string `json:"type"`
	Recipients int    `json:"recipients"`
	Status     string `json:"status"`
}
