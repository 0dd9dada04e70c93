package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

type userRow struct {
	ID         uuid.UUID `db:"id"`
	ExternalID string    `db:"external_id"`
	Email      string    `db:"email"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Email:      r.Email,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const userColumns = `id, external_id, email, created_at, updated_at`

// EnsureByExternalID implements store.UserStore.EnsureByExternalID.
// Known users are served by a plain read. The upsert only runs for a new
// subject or a changed email, and it always returns the surviving row, so
// concurrent first requests for one subject agree on a single user id.
func (s *PostgresUserStore) EnsureByExternalID(
	ctx context.Context,
	externalID, email string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(externalID, email)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetByExternalID(ctx, user.ExternalID)
	switch {
	case err == nil:
		if user.Email == "" || user.Email == existing.Email {
			return existing, nil
		}
	case !store.IsNotFoundError(err):
		log.Error("failed to look up user",
			slog.String("external_id", user.ExternalID),
			slog.String("error", err.Error()))
		return nil, err
	}

	query := `
		INSERT INTO users (id, external_id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (external_id) DO UPDATE
		SET email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	var row userRow
	err = s.db.GetContext(ctx, &row, query, user.ID, user.ExternalID, user.Email, user.CreatedAt)
	if err != nil {
		log.Error("failed to ensure user",
			slog.String("external_id", user.ExternalID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if row.ID == user.ID {
		log.Info("user created on first sight",
			slog.String("user_id", row.ID.String()))
	}
	return row.toDomain(), nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

// GetByExternalID implements store.UserStore.GetByExternalID.
func (s *PostgresUserStore) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sqlx.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}
