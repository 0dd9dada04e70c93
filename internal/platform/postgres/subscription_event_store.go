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

// DefaultEventLimit caps audit listings when no limit is given.
const DefaultEventLimit = 50

// PostgresSubscriptionEventStore implements the store.SubscriptionEventStore interface.
type PostgresSubscriptionEventStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubscriptionEventStore creates a new PostgreSQL implementation of the SubscriptionEventStore interface.
func NewPostgresSubscriptionEventStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionEventStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubscriptionEventStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_event_store")),
	}
}

var _ store.SubscriptionEventStore = (*PostgresSubscriptionEventStore)(nil)

type subscriptionEventRow struct {
	ID             uuid.UUID `db:"id"`
	UserID         uuid.UUID `db:"user_id"`
	SubscriptionID uuid.UUID `db:"subscription_id"`
	EventType      string    `db:"event_type"`
	Platform       string    `db:"platform"`
	PreviousStatus *string   `db:"previous_status"`
	NewStatus      string    `db:"new_status"`
	Metadata       []byte    `db:"metadata"`
	WebhookEventID string    `db:"webhook_event_id"`
	OccurredAt     time.Time `db:"occurred_at"`
}

func (r subscriptionEventRow) toDomain() *domain.SubscriptionEvent {
	e := &domain.SubscriptionEvent{
		ID:             r.ID,
		UserID:         r.UserID,
		SubscriptionID: r.SubscriptionID,
		EventType:      domain.SubscriptionEventType(r.EventType),
		Platform:       domain.Platform(r.Platform),
		NewStatus:      domain.SubscriptionStatus(r.NewStatus),
		Metadata:       r.Metadata,
		WebhookEventID: r.WebhookEventID,
		Timestamp:      r.OccurredAt,
	}
	if r.PreviousStatus != nil {
		prev := domain.SubscriptionStatus(*r.PreviousStatus)
		e.PreviousStatus = &prev
	}
	return e
}

// Append implements store.SubscriptionEventStore.Append.
func (s *PostgresSubscriptionEventStore) Append(ctx context.Context, event *domain.SubscriptionEvent) error {
	var previous *string
	if event.PreviousStatus != nil {
		v := string(*event.PreviousStatus)
		previous = &v
	}
	var metadata []byte
	if len(event.Metadata) > 0 {
		metadata = event.Metadata
	}

	query := `
		INSERT INTO subscription_events (
			id, user_id, subscription_id, event_type, platform,
			previous_status, new_status, metadata, webhook_event_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.SubscriptionID,
		string(event.EventType),
		string(event.Platform),
		previous,
		string(event.NewStatus),
		metadata,
		nullIfEmpty(event.WebhookEventID),
		event.Timestamp,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append subscription event",
			slog.String("error", err.Error()),
			slog.String("subscription_id", event.SubscriptionID.String()),
			slog.String("event_type", string(event.EventType)))
		return MapError(err)
	}
	return nil
}

// ListByUser implements store.SubscriptionEventStore.ListByUser.
func (s *PostgresSubscriptionEventStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.SubscriptionEvent, error) {
	query := `
		SELECT id, user_id, subscription_id, event_type, platform, previous_status,
			new_status, metadata, COALESCE(webhook_event_id, '') AS webhook_event_id, occurred_at
		FROM subscription_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`

	var rows []subscriptionEventRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, limitOr(limit, DefaultEventLimit)); err != nil {
		return nil, MapError(err)
	}

	out := make([]*domain.SubscriptionEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// WithTx implements store.SubscriptionEventStore.WithTx.
func (s *PostgresSubscriptionEventStore) WithTx(tx *sqlx.Tx) store.SubscriptionEventStore {
	return &PostgresSubscriptionEventStore{
		db:     tx,
		logger: s.logger,
	}
}
