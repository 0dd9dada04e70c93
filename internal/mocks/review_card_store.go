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

// ReviewCardStore is a mock of store.ReviewCardStore for use with testify/mock.
type ReviewCardStore struct {
	mock.Mock
}

var _ store.ReviewCardStore = (*ReviewCardStore)(nil)

func reviewCard(args mock.Arguments) (*domain.ReviewCard, error) {
	if c, ok := args.Get(0).(*domain.ReviewCard); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func reviewCards(args mock.Arguments) ([]*domain.ReviewCard, error) {
	if cs, ok := args.Get(0).([]*domain.ReviewCard); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.ReviewCardStore.Create
func (m *ReviewCardStore) Create(ctx context.Context, card *domain.ReviewCard) error {
	return m.Called(ctx, card).Error(0)
}

// Get is a mock implementation of store.ReviewCardStore.Get
func (m *ReviewCardStore) Get(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	return reviewCard(m.Called(ctx, userID, questionID))
}

// GetForUpdate is a mock implementation of store.ReviewCardStore.GetForUpdate
func (m *ReviewCardStore) GetForUpdate(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	return reviewCard(m.Called(ctx, userID, questionID))
}

// Update is a mock implementation of store.ReviewCardStore.Update
func (m *ReviewCardStore) Update(ctx context.Context, card *domain.ReviewCard) error {
	return m.Called(ctx, card).Error(0)
}

// Delete is a mock implementation of store.ReviewCardStore.Delete
func (m *ReviewCardStore) Delete(ctx context.Context, userID, questionID uuid.UUID) error {
	return m.Called(ctx, userID, questionID).Error(0)
}

// ListDue is a mock implementation of store.ReviewCardStore.ListDue
func (m *ReviewCardStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.ReviewCard, error) {
	return reviewCards(m.Called(ctx, userID, now, limit))
}

// List is a mock implementation of store.ReviewCardStore.List
func (m *ReviewCardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.CardStatus,
	limit int,
) ([]*domain.ReviewCard, error) {
	return reviewCards(m.Called(ctx, userID, status, limit))
}

// Stats is a mock implementation of store.ReviewCardStore.Stats
func (m *ReviewCardStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.ReviewStats, error) {
	args := m.Called(ctx, userID, now)
	if s, ok := args.Get(0).(*domain.ReviewStats); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *ReviewCardStore) WithTx(tx *sqlx.Tx) store.ReviewCardStore {
	return m
}
