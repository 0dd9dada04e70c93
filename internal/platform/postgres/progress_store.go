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

// PostgresProgressStore implements the store.ProgressStore interface.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

type progressRow struct {
	ID                  uuid.UUID `db:"id"`
	UserID              uuid.UUID `db:"user_id"`
	QuestionID          uuid.UUID `db:"question_id"`
	Status              string    `db:"status"`
	Attempts            int       `db:"attempts"`
	CorrectAttempts     int       `db:"correct_attempts"`
	TimeSpentSeconds    *int      `db:"time_spent_seconds"`
	SelectedChoiceIndex *int      `db:"selected_choice_index"`
	FirstAttemptAt      time.Time `db:"first_attempt_at"`
	LastAttemptAt       time.Time `db:"last_attempt_at"`
}

func (r progressRow) toDomain() *domain.QuestionProgress {
	return &domain.QuestionProgress{
		ID:                  r.ID,
		UserID:              r.UserID,
		QuestionID:          r.QuestionID,
		Status:              domain.ProgressStatus(r.Status),
		Attempts:            r.Attempts,
		CorrectAttempts:     r.CorrectAttempts,
		TimeSpentSeconds:    r.TimeSpentSeconds,
		SelectedChoiceIndex: r.SelectedChoiceIndex,
		FirstAttemptAt:      r.FirstAttemptAt,
		LastAttemptAt:       r.LastAttemptAt,
	}
}

const progressColumns = `id, user_id, question_id, status, attempts, correct_attempts,
	time_spent_seconds, selected_choice_index, first_attempt_at, last_attempt_at`

// GetForUpdate implements store.ProgressStore.GetForUpdate.
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	userID, questionID uuid.UUID,
) (*domain.QuestionProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM question_progress
		WHERE user_id = $1 AND question_id = $2 FOR UPDATE`

	var row progressRow
	if err := s.db.GetContext(ctx, &row, query, userID, questionID); err != nil {
		return nil, mapNotFound(err, store.ErrProgressNotFound)
	}
	return row.toDomain(), nil
}

// Upsert implements store.ProgressStore.Upsert.
func (s *PostgresProgressStore) Upsert(ctx context.Context, p *domain.QuestionProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO question_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, question_id) DO UPDATE
		SET status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			correct_attempts = EXCLUDED.correct_attempts,
			time_spent_seconds = EXCLUDED.time_spent_seconds,
			selected_choice_index = EXCLUDED.selected_choice_index,
			last_attempt_at = EXCLUDED.last_attempt_at`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.QuestionID,
		string(p.Status),
		p.Attempts,
		p.CorrectAttempts,
		p.TimeSpentSeconds,
		p.SelectedChoiceIndex,
		p.FirstAttemptAt,
		p.LastAttemptAt,
	)
	if err != nil {
		log.Error("failed to upsert question progress",
			slog.String("error", err.Error()),
			slog.String("question_id", p.QuestionID.String()))
		return MapError(err)
	}
	return nil
}

// Delete implements store.ProgressStore.Delete.
func (s *PostgresProgressStore) Delete(ctx context.Context, userID, questionID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM question_progress WHERE user_id = $1 AND question_id = $2`,
		userID, questionID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// StatusByQuestion implements store.ProgressStore.StatusByQuestion.
func (s *PostgresProgressStore) StatusByQuestion(
	ctx context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]domain.ProgressStatus, error) {
	var rows []struct {
		QuestionID uuid.UUID `db:"question_id"`
		Status     string    `db:"status"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT question_id, status FROM question_progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, MapError(err)
	}

	out := make(map[uuid.UUID]domain.ProgressStatus, len(rows))
	for _, r := range rows {
		out[r.QuestionID] = domain.ProgressStatus(r.Status)
	}
	return out, nil
}

// List implements store.ProgressStore.List.
func (s *PostgresProgressStore) List(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.ProgressStatus,
	limit int,
) ([]*domain.QuestionProgress, error) {
	var statusArg *string
	if status != nil {
		v := string(*status)
		statusArg = &v
	}

	query := `SELECT ` + progressColumns + ` FROM question_progress
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY last_attempt_at DESC
		LIMIT $3`

	var rows []progressRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, statusArg, limitOr(limit, DefaultListLimit)); err != nil {
		return nil, MapError(err)
	}

	out := make([]*domain.QuestionProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Stats implements store.ProgressStore.Stats.
func (s *PostgresProgressStore) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProgressStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_attempted,
			COUNT(*) FILTER (WHERE status = 'correct') AS correct,
			COUNT(*) FILTER (WHERE status = 'incorrect') AS incorrect,
			COUNT(*) FILTER (WHERE status = 'flagged') AS flagged,
			COUNT(*) FILTER (WHERE status = 'skipped') AS skipped,
			COALESCE(SUM(attempts), 0) AS total_attempts,
			COALESCE(SUM(time_spent_seconds), 0) AS total_time
		FROM question_progress
		WHERE user_id = $1`

	var row struct {
		TotalAttempted int `db:"total_attempted"`
		Correct        int `db:"correct"`
		Incorrect      int `db:"incorrect"`
		Flagged        int `db:"flagged"`
		Skipped        int `db:"skipped"`
		TotalAttempts  int `db:"total_attempts"`
		TotalTime      int `db:"total_time"`
	}
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, MapError(err)
	}

	stats := &domain.ProgressStats{
		TotalAttempted: row.TotalAttempted,
		Correct:        row.Correct,
		Incorrect:      row.Incorrect,
		Flagged:        row.Flagged,
		Skipped:        row.Skipped,
		TotalAttempts:  row.TotalAttempts,
		TotalTime:      row.TotalTime,
	}
	if stats.TotalAttempted > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(stats.TotalAttempted) * 100
	}
	return stats, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *PostgresProgressStore) WithTx(tx *sqlx.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
