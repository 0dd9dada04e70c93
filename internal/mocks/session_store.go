package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/mock"
)

// SessionStore is a mock of store.SessionStore for use with testify/mock.
type SessionStore struct {
	mock.Mock
}

var _ store.SessionStore = (*SessionStore)(nil)

func session(args mock.Arguments) (*domain.AssessmentSession, error) {
	if s, ok := args.Get(0).(*domain.AssessmentSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create is a mock implementation of store.SessionStore.Create
func (m *SessionStore) Create(ctx context.Context, s *domain.AssessmentSession) error {
	return m.Called(ctx, s).Error(0)
}

// Get is a mock implementation of store.SessionStore.Get
func (m *SessionStore) Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.AssessmentSession, error) {
	return session(m.Called(ctx, userID, sessionID))
}

// GetForUpdate is a mock implementation of store.SessionStore.GetForUpdate
func (m *SessionStore) GetForUpdate(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.AssessmentSession, error) {
	return session(m.Called(ctx, userID, sessionID))
}

// Update is a mock implementation of store.SessionStore.Update
func (m *SessionStore) Update(ctx context.Context, s *domain.AssessmentSession) error {
	return m.Called(ctx, s).Error(0)
}

// Delete is a mock implementation of store.SessionStore.Delete
func (m *SessionStore) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	return m.Called(ctx, userID, sessionID).Error(0)
}

// ListByUser is a mock implementation of store.SessionStore.ListByUser
func (m *SessionStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.SessionFilter,
) ([]*domain.AssessmentSession, error) {
	args := m.Called(ctx, userID, filter)
	if s, ok := args.Get(0).([]*domain.AssessmentSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *SessionStore) WithTx(tx *sqlx.Tx) store.SessionStore {
	return m
}
