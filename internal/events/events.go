package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the review engine.
const (
	// TypeReviewSubmitted is emitted after a review has been scheduled and saved.
	TypeReviewSubmitted = "review.submitted"

	// TypeSessionCompleted is emitted when a review session ends normally.
	TypeSessionCompleted = "session.completed"

	// TypeSessionAbandoned is emitted when a review session is abandoned.
	TypeSessionAbandoned = "session.abandoned"
)

// Event is a notification about something that happened in the review engine.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names what happened, e.g. TypeReviewSubmitted
	Type string `json:"type"`

	// UserID is the owner of the affected items or session
	UserID uuid.UUID `json:"user_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, userID uuid.UUID, payload any, now time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: now.UTC(),
	}, nil
}

// ReviewSubmittedPayload is the payload of TypeReviewSubmitted.
type ReviewSubmittedPayload struct {
	Identifier   string    `json:"identifier"`
	SessionID    uuid.UUID `json:"session_id,omitempty"`
	Quality      int       `json:"quality"`
	TimeSpentMS  int64     `json:"time_spent_ms"`
	IntervalDays float64   `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
	Repetitions  int       `json:"repetitions"`
	NextReviewAt time.Time `json:"next_review_at"`
}

// SessionEndedPayload is the payload of TypeSessionCompleted and TypeSessionAbandoned.
type SessionEndedPayload struct {
	SessionID     uuid.UUID `json:"session_id"`
	TotalReviewed int       `json:"total_reviewed"`
	Correct       int       `json:"correct"`
	Remaining     int       `json:"remaining"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
