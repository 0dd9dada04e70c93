package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/mock"
)

// QuestionStore is a mock of store.QuestionStore for use with testify/mock.
type QuestionStore struct {
	mock.Mock
}

var _ store.QuestionStore = (*QuestionStore)(nil)

// GetByID is a mock implementation of store.QuestionStore.GetByID
func (m *QuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if q, ok := args.Get(0).(*domain.Question); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByIDs is a mock implementation of store.QuestionStore.GetByIDs
func (m *QuestionStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Question, error) {
	args := m.Called(ctx, ids)
	if qs, ok := args.Get(0).([]*domain.Question); ok {
		return qs, args.Error(1)
	}
	return nil, args.Error(1)
}

// ListActive is a mock implementation of store.QuestionStore.ListActive
func (m *QuestionStore) ListActive(ctx context.Context, filter store.QuestionFilter) ([]*domain.Question, error) {
	args := m.Called(ctx, filter)
	if qs, ok := args.Get(0).([]*domain.Question); ok {
		return qs, args.Error(1)
	}
	return nil, args.Error(1)
}
