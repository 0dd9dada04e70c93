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

// Default page sizes for card listings.
const (
	DefaultDueLimit  = 50
	DefaultListLimit = 100
)

// PostgresReviewCardStore implements the store.ReviewCardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewCardStore creates a new PostgreSQL implementation of the ReviewCardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewCardStore(db store.DBTX, logger *slog.Logger) *PostgresReviewCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_card_store")),
	}
}

// Ensure PostgresReviewCardStore implements store.ReviewCardStore interface
var _ store.ReviewCardStore = (*PostgresReviewCardStore)(nil)

type reviewCardRow struct {
	ID             uuid.UUID  `db:"id"`
	UserID         uuid.UUID  `db:"user_id"`
	QuestionID     uuid.UUID  `db:"question_id"`
	NextReviewAt   time.Time  `db:"next_review_at"`
	IntervalDays   int        `db:"interval_days"`
	EaseFactor     float64    `db:"ease_factor"`
	Repetitions    int        `db:"repetitions"`
	Status         string     `db:"status"`
	LastReviewedAt *time.Time `db:"last_reviewed_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r reviewCardRow) toDomain() *domain.ReviewCard {
	return &domain.ReviewCard{
		ID:             r.ID,
		UserID:         r.UserID,
		QuestionID:     r.QuestionID,
		NextReviewAt:   r.NextReviewAt,
		IntervalDays:   r.IntervalDays,
		EaseFactor:     r.EaseFactor,
		Repetitions:    r.Repetitions,
		Status:         domain.CardStatus(r.Status),
		LastReviewedAt: r.LastReviewedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func reviewCardsFromRows(rows []reviewCardRow) []*domain.ReviewCard {
	out := make([]*domain.ReviewCard, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

const reviewCardColumns = `id, user_id, question_id, next_review_at, interval_days, ease_factor,
	repetitions, status, last_reviewed_at, created_at, updated_at`

// Create implements store.ReviewCardStore.Create.
func (s *PostgresReviewCardStore) Create(ctx context.Context, card *domain.ReviewCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("invalid review card",
			slog.String("error", err.Error()),
			slog.String("user_id", card.UserID.String()),
			slog.String("question_id", card.QuestionID.String()))
		return err
	}

	query := `
		INSERT INTO review_cards (` + reviewCardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.UserID,
		card.QuestionID,
		card.NextReviewAt,
		card.IntervalDays,
		card.EaseFactor,
		card.Repetitions,
		string(card.Status),
		card.LastReviewedAt,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("review card references a missing question",
				slog.String("question_id", card.QuestionID.String()))
			return store.ErrQuestionNotFound
		}
		log.Error("failed to create review card",
			slog.String("error", err.Error()),
			slog.String("user_id", card.UserID.String()),
			slog.String("question_id", card.QuestionID.String()))
		return MapUniqueViolation(err, store.ErrReviewCardExists)
	}

	log.Debug("review card created",
		slog.String("card_id", card.ID.String()),
		slog.String("question_id", card.QuestionID.String()))
	return nil
}

// Get implements store.ReviewCardStore.Get.
func (s *PostgresReviewCardStore) Get(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	return s.get(ctx, userID, questionID, "")
}

// GetForUpdate implements store.ReviewCardStore.GetForUpdate.
func (s *PostgresReviewCardStore) GetForUpdate(
	ctx context.Context,
	userID, questionID uuid.UUID,
) (*domain.ReviewCard, error) {
	return s.get(ctx, userID, questionID, " FOR UPDATE")
}

func (s *PostgresReviewCardStore) get(
	ctx context.Context,
	userID, questionID uuid.UUID,
	lock string,
) (*domain.ReviewCard, error) {
	query := `SELECT ` + reviewCardColumns + ` FROM review_cards
		WHERE user_id = $1 AND question_id = $2` + lock

	var row reviewCardRow
	if err := s.db.GetContext(ctx, &row, query, userID, questionID); err != nil {
		return nil, mapNotFound(err, store.ErrReviewCardNotFound)
	}
	return row.toDomain(), nil
}

// Update implements store.ReviewCardStore.Update.
func (s *PostgresReviewCardStore) Update(ctx context.Context, card *domain.ReviewCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE review_cards
		SET next_review_at = $3, interval_days = $4, ease_factor = $5, repetitions = $6,
			status = $7, last_reviewed_at = $8, updated_at = $9
		WHERE user_id = $1 AND question_id = $2`

	result, err := s.db.ExecContext(ctx, query,
		card.UserID,
		card.QuestionID,
		card.NextReviewAt,
		card.IntervalDays,
		card.EaseFactor,
		card.Repetitions,
		string(card.Status),
		card.LastReviewedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update review card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrReviewCardNotFound)
}

// Delete implements store.ReviewCardStore.Delete.
func (s *PostgresReviewCardStore) Delete(ctx context.Context, userID, questionID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM review_cards WHERE user_id = $1 AND question_id = $2`,
		userID, questionID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrReviewCardNotFound)
}

// ListDue implements store.ReviewCardStore.ListDue.
func (s *PostgresReviewCardStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.ReviewCard, error) {
	query := `SELECT ` + reviewCardColumns + ` FROM review_cards
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3`

	var rows []reviewCardRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, now.UTC(), limitOr(limit, DefaultDueLimit)); err != nil {
		s.logger.ErrorContext(ctx, "failed to list due cards",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return reviewCardsFromRows(rows), nil
}

// List implements store.ReviewCardStore.List.
func (s *PostgresReviewCardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.CardStatus,
	limit int,
) ([]*domain.ReviewCard, error) {
	var statusArg *string
	if status != nil {
		v := string(*status)
		statusArg = &v
	}

	query := `SELECT ` + reviewCardColumns + ` FROM review_cards
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY next_review_at ASC
		LIMIT $3`

	var rows []reviewCardRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, statusArg, limitOr(limit, DefaultListLimit)); err != nil {
		return nil, MapError(err)
	}
	return reviewCardsFromRows(rows), nil
}

// Stats implements store.ReviewCardStore.Stats.
func (s *PostgresReviewCardStore) Stats(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*domain.ReviewStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'new') AS new,
			COUNT(*) FILTER (WHERE status = 'learning') AS learning,
			COUNT(*) FILTER (WHERE status = 'review') AS review,
			COUNT(*) FILTER (WHERE status = 'relearning') AS relearning,
			COUNT(*) FILTER (WHERE next_review_at <= $2) AS due_today
		FROM review_cards
		WHERE user_id = $1`

	var stats struct {
		Total      int `db:"total"`
		New        int `db:"new"`
		Learning   int `db:"learning"`
		Review     int `db:"review"`
		Relearning int `db:"relearning"`
		DueToday   int `db:"due_today"`
	}
	if err := s.db.GetContext(ctx, &stats, query, userID, now.UTC()); err != nil {
		return nil, MapError(err)
	}

	return &domain.ReviewStats{
		Total:      stats.Total,
		New:        stats.New,
		Learning:   stats.Learning,
		Review:     stats.Review,
		Relearning: stats.Relearning,
		DueToday:   stats.DueToday,
	}, nil
}

// WithTx implements store.ReviewCardStore.WithTx.
func (s *PostgresReviewCardStore) WithTx(tx *sqlx.Tx) store.ReviewCardStore {
	return &PostgresReviewCardStore{
		db:     tx,
		logger: s.logger,
	}
}
