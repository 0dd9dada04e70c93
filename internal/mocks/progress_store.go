package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/mock"
)

// ProgressStore is a mock of store.ProgressStore for use with testify/mock.
type ProgressStore struct {
	mock.Mock
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// GetForUpdate is a mock implementation of store.ProgressStore.GetForUpdate
func (m *ProgressStore) GetForUpdate(
	ctx context.Context,
	userID, questionID uuid.UUID,
) (*domain.QuestionProgress, error) {
	args := m.Called(ctx, userID, questionID)
	if p, ok := args.Get(0).(*domain.QuestionProgress); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert is a mock implementation of store.ProgressStore.Upsert
func (m *ProgressStore) Upsert(ctx context.Context, progress *domain.QuestionProgress) error {
	return m.Called(ctx, progress).Error(0)
}

// Delete is a mock implementation of store.ProgressStore.Delete
func (m *ProgressStore) Delete(ctx context.Context, userID, questionID uuid.UUID) error {
	return m.Called(ctx, userID, questionID).Error(0)
}

// StatusByQuestion is a mock implementation of store.ProgressStore.StatusByQuestion
func (m *ProgressStore) StatusByQuestion(
	ctx context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]domain.ProgressStatus, error) {
	args := m.Called(ctx, userID)
	if s, ok := args.Get(0).(map[uuid.UUID]domain.ProgressStatus); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.ProgressStore.List
func (m *ProgressStore) List(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.ProgressStatus,
	limit int,
) ([]*domain.QuestionProgress, error) {
	args := m.Called(ctx, userID, status, limit)
	if p, ok := args.Get(0).([]*domain.QuestionProgress); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// Stats is a mock implementation of store.ProgressStore.Stats
func (m *ProgressStore) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProgressStats, error) {
	args := m.Called(ctx, userID)
	if s, ok := args.Get(0).(*domain.ProgressStats); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *ProgressStore) WithTx(tx *sqlx.Tx) store.ProgressStore {
	return m
}
