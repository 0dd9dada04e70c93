package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// SubscriptionFilter narrows the admin listing.
type SubscriptionFilter struct {
	Status   *domain.SubscriptionStatus
	Platform *domain.Platform
	Limit    int
}

// SubscriptionStore defines the interface for subscription persistence.
type SubscriptionStore interface {
	// Create inserts a new subscription lineage.
	// Returns ErrSubscriptionExists if the provider reference is already known.
	Create(ctx context.Context, sub *domain.Subscription) error

	// Update replaces the mutable fields of an existing subscription.
	Update(ctx context.Context, sub *domain.Subscription) error

	// LockByExternalRef finds the lineage for a provider reference and locks it.
	// Returns ErrSubscriptionNotFound if none exists.
	LockByExternalRef(ctx context.Context, ref domain.ExternalRef) (*domain.Subscription, error)

	// LockByID retrieves a subscription by ID and locks it.
	LockByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// GetActiveForUser returns the user's subscription currently flagged active,
	// or the most recently updated one if none is. Returns ErrSubscriptionNotFound
	// if the user has no subscriptions.
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)

	// ListByUser returns all of the user's subscriptions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Subscription, error)

	// ListElapsedActive returns ids of subscriptions still flagged active whose
	// period ended before now. A zero userID scans all users.
	ListElapsedActive(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]uuid.UUID, error)

	// List returns subscriptions for the admin view, newest first.
	List(ctx context.Context, filter SubscriptionFilter) ([]*domain.Subscription, error)

	// Metrics counts subscriptions by state, platform and plan interval.
	Metrics(ctx context.Context) (*domain.SubscriptionMetrics, error)

	// WithTx returns a new SubscriptionStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) SubscriptionStore
}

// SubscriptionEventStore persists the append-only audit trail.
type SubscriptionEventStore interface {
	// Append inserts an audit row.
	Append(ctx context.Context, event *domain.SubscriptionEvent) error

	// ListByUser returns the user's audit rows, newest first, capped at limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SubscriptionEvent, error)

	// WithTx returns a new SubscriptionEventStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) SubscriptionEventStore
}
