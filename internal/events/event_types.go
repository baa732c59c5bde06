package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tickerbell/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberJoined   EventType = "member_joined"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event represents an auth event emitted at the HTTP boundary.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with an id and timestamp.
func New(eventType EventType, subject string, role domain.Role, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MemberJoinedPayload payload.
type MemberJoinedPayload struct {
	MemberID string `json:"member_id"`
}

// LoginFailedPayload payload. Reason is an internal classification and is
// never sent to clients.
type LoginFailedPayload struct {
	Reason   string `json:"reason"`
	RemoteIP string `json:"remote_ip,omitempty"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	MemberID string `json:"member_id"`
	RemoteIP string `json:"remote_ip,omitempty"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Rotated bool `json:"rotated"`
}
