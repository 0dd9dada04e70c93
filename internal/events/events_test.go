package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type testPayload struct {
		ID     uuid.UUID `json:"id"`
		Action string    `json:"action"`
	}

	payload := testPayload{ID: uuid.New(), Action: "renew"}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	event, err := NewEvent("test_event", payload, now)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "test_event", event.Type)
	assert.Equal(t, now, event.CreatedAt)

	var decoded testPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)

	var viaHelper testPayload
	require.NoError(t, event.UnmarshalPayload(&viaHelper))
	assert.Equal(t, payload, viaHelper)
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("bad", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestNewSubscriptionTransitionEvent(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	sub := &domain.Subscription{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Platform: domain.PlatformWebStripe,
		Status:   domain.SubscriptionExpired,
	}
	previous := domain.SubscriptionActive
	audit := domain.NewSubscriptionEvent(sub, domain.EventExpired, &previous, nil, "evt_1", now)

	event, err := NewSubscriptionTransitionEvent(audit, sub)
	require.NoError(t, err)
	assert.Equal(t, TypeSubscriptionTransition, event.Type)

	var got SubscriptionTransition
	require.NoError(t, event.UnmarshalPayload(&got))
	assert.Equal(t, sub.ID, got.SubscriptionID)
	assert.Equal(t, domain.EventExpired, got.EventType)
	assert.Equal(t, domain.SubscriptionExpired, got.NewStatus)
	require.NotNil(t, got.PreviousStatus)
	assert.Equal(t, domain.SubscriptionActive, *got.PreviousStatus)
	assert.False(t, got.IsActive)
	assert.Equal(t, "evt_1", got.WebhookEventID)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu           sync.Mutex
	HandledCount int
	LastEvent    *Event
	HandlerError error
}

// HandleEvent records the event and returns the configured error.
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.HandledCount++
	h.LastEvent = event
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *Event
	h := HandlerFunc(func(ctx context.Context, event *Event) error {
		got = event
		return nil
	})

	event, err := NewEvent("x", map[string]string{}, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Same(t, event, got)
}
