package mocks

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/mock"
)

// WebhookReceiptStore is a mock of store.WebhookReceiptStore for use with testify/mock.
type WebhookReceiptStore struct {
	mock.Mock
}

var _ store.WebhookReceiptStore = (*WebhookReceiptStore)(nil)

// Record is a mock implementation of store.WebhookReceiptStore.Record
func (m *WebhookReceiptStore) Record(
	ctx context.Context,
	receipt *domain.WebhookReceipt,
) (*domain.WebhookReceipt, error) {
	args := m.Called(ctx, receipt)
	if r, ok := args.Get(0).(*domain.WebhookReceipt); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetForUpdate is a mock implementation of store.WebhookReceiptStore.GetForUpdate
func (m *WebhookReceiptStore) GetForUpdate(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
) (*domain.WebhookReceipt, error) {
	args := m.Called(ctx, provider, eventID)
	if r, ok := args.Get(0).(*domain.WebhookReceipt); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkProcessed is a mock implementation of store.WebhookReceiptStore.MarkProcessed
func (m *WebhookReceiptStore) MarkProcessed(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
	at time.Time,
) error {
	return m.Called(ctx, provider, eventID, at).Error(0)
}

// MarkFailed is a mock implementation of store.WebhookReceiptStore.MarkFailed
func (m *WebhookReceiptStore) MarkFailed(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
	reason string,
) error {
	return m.Called(ctx, provider, eventID, reason).Error(0)
}

// WithTx returns the mock itself so transactional calls share its expectations.
func (m *WebhookReceiptStore) WithTx(tx *sqlx.Tx) store.WebhookReceiptStore {
	return m
}
