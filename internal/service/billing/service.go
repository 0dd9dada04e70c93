// Package billing keeps each user's subscription state in step with the
// billing providers. Provider webhooks pass through an idempotency ledger
// before they touch subscription rows, every transition is written to an
// append-only audit log, and a periodic sweep expires subscriptions whose
// period has ended.
//
// Access checks never trust the cached is_active flag alone: the gating view is
// recomputed from status and period end at read time, so a missed or delayed
// sweep cannot grant access past expiry.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// Query defaults.
const (
	DefaultEventLimit        = 50
	DefaultSubscriptionLimit = 100
	DefaultSweepBatch        = 500
)

// WebhookResult acknowledges an applied provider event.
type WebhookResult struct {
	Provider  domain.WebhookProvider `json:"provider"`
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Action    Action                 `json:"action"`
}

// Service defines subscription operations.
type Service interface {
	// ApplyWebhook verifies, parses and applies one provider delivery. A delivery
	// whose event was already processed returns service.ErrDuplicateIgnored
	// without side effects.
	ApplyWebhook(
		ctx context.Context,
		provider domain.WebhookProvider,
		payload []byte,
		signature string,
	) (*WebhookResult, error)

	// ExpireSweep expires every subscription still flagged active whose period
	// ended before now and returns how many it changed. Running it again with
	// the same now changes nothing.
	ExpireSweep(ctx context.Context, now time.Time) (int, error)

	// ValidateSubscription expires the user's elapsed subscriptions before
	// returning the gating view.
	ValidateSubscription(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionInfo, error)

	// Info returns the gating view without writing.
	Info(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionInfo, error)

	// HasActive reports whether the user currently has premium access.
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)

	// History returns all of the user's subscriptions, newest first.
	History(ctx context.Context, userID uuid.UUID) ([]*domain.Subscription, error)

	// Events returns the user's audit rows, newest first.
	Events(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SubscriptionEvent, error)

	// Metrics counts subscriptions by state, platform and plan interval.
	Metrics(ctx context.Context) (*domain.SubscriptionMetrics, error)

	// List returns subscriptions matching filter.
	List(ctx context.Context, filter store.SubscriptionFilter) ([]*domain.Subscription, error)
}
