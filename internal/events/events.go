package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// TypeSubscriptionTransition is the event type emitted after every subscription
// audit row is written.
const TypeSubscriptionTransition = "subscription.transition"

// Event is a typed envelope around a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type tells handlers how to decode Payload
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any, now time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: now.UTC(),
	}, nil
}

// SubscriptionTransition describes one committed subscription state change.
type SubscriptionTransition struct {
	SubscriptionID uuid.UUID                    `json:"subscription_id"`
	UserID         uuid.UUID                    `json:"user_id"`
	EventType      domain.SubscriptionEventType `json:"event_type"`
	Platform       domain.Platform              `json:"platform"`
	PreviousStatus *domain.SubscriptionStatus   `json:"previous_status,omitempty"`
	NewStatus      domain.SubscriptionStatus    `json:"new_status"`
	IsActive       bool                         `json:"is_active"`
	WebhookEventID string                       `json:"webhook_event_id,omitempty"`
	OccurredAt     time.Time                    `json:"occurred_at"`
}

// NewSubscriptionTransitionEvent wraps the audit row and resulting state of sub.
func NewSubscriptionTransitionEvent(
	audit *domain.SubscriptionEvent,
	sub *domain.Subscription,
) (*Event, error) {
	return NewEvent(TypeSubscriptionTransition, SubscriptionTransition{
		SubscriptionID: audit.SubscriptionID,
		UserID:         audit.UserID,
		EventType:      audit.EventType,
		Platform:       audit.Platform,
		PreviousStatus: audit.PreviousStatus,
		NewStatus:      audit.NewStatus,
		IsActive:       sub.IsActive,
		WebhookEventID: audit.WebhookEventID,
		OccurredAt:     audit.Timestamp,
	}, audit.Timestamp)
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

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
