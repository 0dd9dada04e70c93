package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/mock"
)

// SubscriptionStore is a mock of store.SubscriptionStore for use with testify/mock.
type SubscriptionStore struct {
	mock.Mock
}

var _ store.SubscriptionStore = (*SubscriptionStore)(nil)

func subscription(args mock.Arguments) (*domain.Subscription, error) {
	if s, ok := args.Get(0).(*domain.Subscription); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func subscriptions(args mock.Arguments) ([]*domain.Subscription, error) {
	if s, ok := args.Get(0).([]*domain.Subscription); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.SubscriptionStore.Create
func (m *SubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

// Update is a mock implementation of store.SubscriptionStore.Update
func (m *SubscriptionStore) Update(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

// LockByExternalRef is a mock implementation of store.SubscriptionStore.LockByExternalRef
func (m *SubscriptionStore) LockByExternalRef(
	ctx context.Context,
	ref domain.ExternalRef,
) (*domain.Subscription, error) {
	return subscription(m.Called(ctx, ref))
}

// LockByID is a mock implementation of store.SubscriptionStore.LockByID
func (m *SubscriptionStore) LockByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return subscription(m.Called(ctx, id))
}

// GetActiveForUser is a mock implementation of store.SubscriptionStore.GetActiveForUser
func (m *SubscriptionStore) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return subscription(m.Called(ctx, userID))
}

// ListByUser is a mock implementation of store.SubscriptionStore.ListByUser
func (m *SubscriptionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Subscription, error) {
	return subscriptions(m.Called(ctx, userID))
}

// ListElapsedActive is a mock implementation of store.SubscriptionStore.ListElapsedActive
func (m *SubscriptionStore) ListElapsedActive(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, now, limit)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.SubscriptionStore.List
func (m *SubscriptionStore) List(ctx context.Context, filter store.SubscriptionFilter) ([]*domain.Subscription, error) {
	return subscriptions(m.Called(ctx, filter))
}

// Metrics is a mock implementation of store.SubscriptionStore.Metrics
func (m *SubscriptionStore) Metrics(ctx context.Context) (*domain.SubscriptionMetrics, error) {
	args := m.Called(ctx)
	if mt, ok := args.Get(0).(*domain.SubscriptionMetrics); ok {
		return mt, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *SubscriptionStore) WithTx(tx *sqlx.Tx) store.SubscriptionStore {
	return m
}

// SubscriptionEventStore is a mock of store.SubscriptionEventStore for use with testify/mock.
type SubscriptionEventStore struct {
	mock.Mock
}

var _ store.SubscriptionEventStore = (*SubscriptionEventStore)(nil)

// Append is a mock implementation of store.SubscriptionEventStore.Append
func (m *SubscriptionEventStore) Append(ctx context.Context, event *domain.SubscriptionEvent) error {
	return m.Called(ctx, event).Error(0)
}

// ListByUser is a mock implementation of store.SubscriptionEventStore.ListByUser
func (m *SubscriptionEventStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.SubscriptionEvent, error) {
	args := m.Called(ctx, userID, limit)
	if e, ok := args.Get(0).([]*domain.SubscriptionEvent); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *SubscriptionEventStore) WithTx(tx *sqlx.Tx) store.SubscriptionEventStore {
	return m
}
