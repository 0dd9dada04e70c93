package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// PostgresWebhookReceiptStore implements the store.WebhookReceiptStore interface.
type PostgresWebhookReceiptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWebhookReceiptStore creates a new PostgreSQL implementation of the WebhookReceiptStore interface.
func NewPostgresWebhookReceiptStore(db store.DBTX, logger *slog.Logger) *PostgresWebhookReceiptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWebhookReceiptStore{
		db:     db,
		logger: logger.With(slog.String("component", "webhook_receipt_store")),
	}
}

var _ store.WebhookReceiptStore = (*PostgresWebhookReceiptStore)(nil)

type webhookReceiptRow struct {
	ID          uuid.UUID  `db:"id"`
	Provider    string     `db:"provider"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	RawPayload  []byte     `db:"raw_payload"`
	Processed   bool       `db:"processed"`
	ProcessedAt *time.Time `db:"processed_at"`
	Error       string     `db:"error"`
	ReceivedAt  time.Time  `db:"received_at"`
}

func (r webhookReceiptRow) toDomain() *domain.WebhookReceipt {
	return &domain.WebhookReceipt{
		ID:          r.ID,
		Provider:    domain.WebhookProvider(r.Provider),
		EventID:     r.EventID,
		EventType:   r.EventType,
		RawPayload:  r.RawPayload,
		Processed:   r.Processed,
		ProcessedAt: r.ProcessedAt,
		Error:       r.Error,
		ReceivedAt:  r.ReceivedAt,
	}
}

const webhookReceiptColumns = `id, provider, event_id, event_type, raw_payload, processed,
	processed_at, COALESCE(error, '') AS error, received_at`

// Record implements store.WebhookReceiptStore.Record.
func (s *PostgresWebhookReceiptStore) Record(
	ctx context.Context,
	receipt *domain.WebhookReceipt,
) (*domain.WebhookReceipt, error) {
	if err := receipt.Validate(); err != nil {
		return nil, err
	}

	var raw []byte
	if len(receipt.RawPayload) > 0 {
		raw = receipt.RawPayload
	}

	insert := `
		INSERT INTO webhook_receipts (id, provider, event_id, event_type, raw_payload, processed, received_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (provider, event_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, insert,
		receipt.ID,
		string(receipt.Provider),
		receipt.EventID,
		receipt.EventType,
		raw,
		receipt.ReceivedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record webhook receipt",
			slog.String("provider", string(receipt.Provider)),
			slog.String("event_id", receipt.EventID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	query := `SELECT ` + webhookReceiptColumns + ` FROM webhook_receipts
		WHERE provider = $1 AND event_id = $2`

	var row webhookReceiptRow
	if err := s.db.GetContext(ctx, &row, query, string(receipt.Provider), receipt.EventID); err != nil {
		return nil, mapNotFound(err, store.ErrWebhookReceiptNotFound)
	}
	return row.toDomain(), nil
}

// GetForUpdate implements store.WebhookReceiptStore.GetForUpdate.
func (s *PostgresWebhookReceiptStore) GetForUpdate(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
) (*domain.WebhookReceipt, error) {
	query := `SELECT ` + webhookReceiptColumns + ` FROM webhook_receipts
		WHERE provider = $1 AND event_id = $2 FOR UPDATE`

	var row webhookReceiptRow
	if err := s.db.GetContext(ctx, &row, query, string(provider), eventID); err != nil {
		return nil, mapNotFound(err, store.ErrWebhookReceiptNotFound)
	}
	return row.toDomain(), nil
}

// MarkProcessed implements store.WebhookReceiptStore.MarkProcessed.
func (s *PostgresWebhookReceiptStore) MarkProcessed(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
	at time.Time,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE webhook_receipts
		SET processed = TRUE, processed_at = $3, error = NULL
		WHERE provider = $1 AND event_id = $2`,
		string(provider), eventID, at.UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrWebhookReceiptNotFound)
}

// MarkFailed implements store.WebhookReceiptStore.MarkFailed.
func (s *PostgresWebhookReceiptStore) MarkFailed(
	ctx context.Context,
	provider domain.WebhookProvider,
	eventID string,
	reason string,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE webhook_receipts
		SET error = $3
		WHERE provider = $1 AND event_id = $2 AND NOT processed`,
		string(provider), eventID, reason)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrWebhookReceiptNotFound)
}

// WithTx implements store.WebhookReceiptStore.WithTx.
func (s *PostgresWebhookReceiptStore) WithTx(tx *sqlx.Tx) store.WebhookReceiptStore {
	return &PostgresWebhookReceiptStore{
		db:     tx,
		logger: s.logger,
	}
}
