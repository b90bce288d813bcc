package overlay

// Message is the wire format sent to display clients.
// Immutable once constructed; serialized once per broadcast.
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}
