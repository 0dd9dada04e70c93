package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// WebhookReceiptStore is the idempotency ledger for provider events.
type WebhookReceiptStore interface {
	// Record inserts receipt unless one already exists for its (provider, event id)
	// and returns the stored receipt either way.
	Record(ctx context.Context, receipt *domain.WebhookReceipt) (*domain.WebhookReceipt, error)

	// GetForUpdate locks the receipt for (provider, eventID).
	// Returns ErrWebhookReceiptNotFound if it does not exist.
	GetForUpdate(ctx context.Context, provider domain.WebhookProvider, eventID string) (*domain.WebhookReceipt, error)

	// MarkProcessed flags the receipt processed and clears any stored error.
	MarkProcessed(ctx context.Context, provider domain.WebhookProvider, eventID string, at time.Time) error

	// MarkFailed stores the processing error on a receipt that stays unprocessed.
	MarkFailed(ctx context.Context, provider domain.WebhookProvider, eventID string, reason string) error

	// WithTx returns a new WebhookReceiptStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) WebhookReceiptStore
}
