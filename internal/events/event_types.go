package events

import (
	"time"

	"github.com/spec-kit/villa-web/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCredentialsSet EventType = "credentials_set"
	EventLoggedOut      EventType = "logged_out"
	EventRedirected     EventType = "navigation_redirected"
)

// Event represents a change observed on the client session.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// RedirectedPayload describes one guard redirect.
type RedirectedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}
