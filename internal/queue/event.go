// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried on the letter.events queue.
const (
	EventLetterCreated = "letter.created"
	EventLetterClosed  = "letter.closed"
)

// LetterEvent is published when a letter is registered or closed.  It
// contains enough information for downstream consumers to log or notify
// without querying the primary database.
type LetterEvent struct {
	Type       string   `json:"type"`
	LetterID   uint64   `json:"letter_id"`
	Reference  string   `json:"reference"`
	Title      string   `json:"title"`
	ActorID    uint64   `json:"actor_id"`
	Recipients []string `json:"recipients,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}
