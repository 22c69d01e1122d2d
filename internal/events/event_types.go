package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/video-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUserLoggedOut  EventType = "user_logged_out"
	EventStreamFinished EventType = "stream_finished"
	EventStreamAborted  EventType = "stream_aborted"
)

// AllTypes lists every event type in publication order of a typical session.
var AllTypes = []EventType{
	EventUserRegistered,
	EventUserLoggedIn,
	EventUserLoggedOut,
	EventStreamFinished,
	EventStreamAborted,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services and handlers.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// SessionPayload accompanies account events.
type SessionPayload struct {
	RollNo     string    `json:"roll_no,omitempty"`
	TokenID    string    `json:"token_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	RememberMe bool      `json:"remember_me,omitempty"`
}

// StreamPayload accompanies stream events.
type StreamPayload struct {
	Video    string `json:"video"`
	Partial  bool   `json:"partial"`
	Start    int64  `json:"start"`
	Sent     int64  `json:"sent"`
	Expected int64  `json:"expected"`
	Error    string `json:"error,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current UTC time.
func NewEvent(eventType EventType, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
