package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// WebhookProvider identifies the billing provider that sent an event.
type WebhookProvider string

// Supported providers.
const (
	ProviderStripe    WebhookProvider = "stripe"
	ProviderSuperwall WebhookProvider = "superwall"
)

// Valid reports whether p is a supported provider.
func (p WebhookProvider) Valid() bool {
	return p == ProviderStripe || p == ProviderSuperwall
}

// Webhook receipt errors.
var (
	ErrInvalidProvider     = errors.New("invalid webhook provider")
	ErrReceiptEventIDEmpty = errors.New("webhook receipt event ID cannot be empty")
)

// WebhookReceipt records that a provider event was seen. At most one receipt
// exists per (Provider, EventID); receipts are never deleted.
type WebhookReceipt struct {
	ID          uuid.UUID       `json:"id"`
	Provider    WebhookProvider `json:"provider"`
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	RawPayload  json.RawMessage `json:"raw_payload,omitempty"`
	Processed   bool            `json:"processed"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// NewWebhookReceipt creates an unprocessed receipt.
func NewWebhookReceipt(
	provider WebhookProvider,
	eventID, eventType string,
	raw json.RawMessage,
	now time.Time,
) (*WebhookReceipt, error) {
	r := &WebhookReceipt{
		ID:         uuid.New(),
		Provider:   provider,
		EventID:    eventID,
		EventType:  eventType,
		RawPayload: raw,
		ReceivedAt: now.UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks if the WebhookReceipt has valid data.
func (r *WebhookReceipt) Validate() error {
	if !r.Provider.Valid() {
		return ErrInvalidProvider
	}
	if r.EventID == "" {
		return ErrReceiptEventIDEmpty
	}
	return nil
}
