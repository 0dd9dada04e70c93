package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// DefaultSessionListLimit caps ListByUser when the filter leaves Limit unset.
const DefaultSessionListLimit = 50

// PostgresSessionStore implements the store.SessionStore interface.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

type sessionRow struct {
	ID                     uuid.UUID      `db:"id"`
	UserID                 uuid.UUID      `db:"user_id"`
	ExamID                 uuid.UUID      `db:"exam_id"`
	Mode                   string         `db:"mode"`
	Source                 string         `db:"source"`
	Subjects               pq.StringArray `db:"subjects"`
	Topics                 pq.StringArray `db:"topics"`
	QuestionCount          int            `db:"question_count"`
	HasTimer               bool           `db:"has_timer"`
	TimeLimitMinutes       *int           `db:"time_limit_minutes"`
	TimePerQuestionSeconds *int           `db:"time_per_question_seconds"`
	QuestionIDs            pq.StringArray `db:"question_ids"`
	Answers                []byte         `db:"answers"`
	Completed              bool           `db:"completed"`
	Result                 []byte         `db:"result"`
	StartedAt              time.Time      `db:"started_at"`
	CompletedAt            *time.Time     `db:"completed_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

func (r sessionRow) toDomain() (*domain.AssessmentSession, error) {
	questionIDs := make([]uuid.UUID, 0, len(r.QuestionIDs))
	for _, raw := range r.QuestionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("session %s: malformed question id %q: %w", r.ID, raw, err)
		}
		questionIDs = append(questionIDs, id)
	}

	s := &domain.AssessmentSession{
		ID:     r.ID,
		UserID: r.UserID,
		ExamID: r.ExamID,
		Mode:   domain.SessionMode(r.Mode),
		Policy: domain.SelectionPolicy{
			Source:        domain.SelectionSource(r.Source),
			Subjects:      []string(r.Subjects),
			Topics:        []string(r.Topics),
			QuestionCount: r.QuestionCount,
		},
		Timer: domain.TimerConfig{
			HasTimer:               r.HasTimer,
			TimeLimitMinutes:       r.TimeLimitMinutes,
			TimePerQuestionSeconds: r.TimePerQuestionSeconds,
		},
		QuestionIDs: questionIDs,
		Completed:   r.Completed,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	var answers []domain.Answer
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, fmt.Errorf("session %s: decode answers: %w", r.ID, err)
	}
	if err := s.RestoreAnswers(answers); err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}

	if len(r.Result) > 0 {
		var result domain.SessionResult
		if err := json.Unmarshal(r.Result, &result); err != nil {
			return nil, fmt.Errorf("session %s: decode result: %w", r.ID, err)
		}
		s.Result = &result
	}
	return s, nil
}

const sessionColumns = `id, user_id, exam_id, mode, source, subjects, topics, question_count,
	has_timer, time_limit_minutes, time_per_question_seconds, question_ids::text[] AS question_ids,
	answers, completed, result, started_at, completed_at, updated_at`

func encodeSessionState(s *domain.AssessmentSession) (answers []byte, result []byte, err error) {
	answers, err = json.Marshal(s.Answers())
	if err != nil {
		return nil, nil, fmt.Errorf("encode answers: %w", err)
	}
	if s.Result != nil {
		result, err = json.Marshal(s.Result)
		if err != nil {
			return nil, nil, fmt.Errorf("encode result: %w", err)
		}
	}
	return answers, result, nil
}

// Create implements store.SessionStore.Create.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.AssessmentSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return err
	}
	answers, result, err := encodeSessionState(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assessment_sessions (
			id, user_id, exam_id, mode, source, subjects, topics, question_count,
			has_timer, time_limit_minutes, time_per_question_seconds, question_ids,
			answers, completed, result, started_at, completed_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12::uuid[],
			$13, $14, $15, $16, $17, $18
		)`

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.ExamID,
		string(session.Mode),
		string(session.Policy.Source),
		pq.Array(nonNilStrings(session.Policy.Subjects)),
		pq.Array(nonNilStrings(session.Policy.Topics)),
		session.Policy.QuestionCount,
		session.Timer.HasTimer,
		session.Timer.TimeLimitMinutes,
		session.Timer.TimePerQuestionSeconds,
		pq.Array(uuidStrings(session.QuestionIDs)),
		answers,
		session.Completed,
		result,
		session.StartedAt,
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create assessment session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return MapError(err)
	}

	log.Debug("assessment session created",
		slog.String("session_id", session.ID.String()),
		slog.Int("question_count", len(session.QuestionIDs)))
	return nil
}

// Get implements store.SessionStore.Get.
func (s *PostgresSessionStore) Get(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.AssessmentSession, error) {
	return s.get(ctx, userID, sessionID, "")
}

// GetForUpdate implements store.SessionStore.GetForUpdate.
func (s *PostgresSessionStore) GetForUpdate(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.AssessmentSession, error) {
	return s.get(ctx, userID, sessionID, " FOR UPDATE")
}

func (s *PostgresSessionStore) get(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	lock string,
) (*domain.AssessmentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM assessment_sessions
		WHERE id = $1 AND user_id = $2` + lock

	var row sessionRow
	if err := s.db.GetContext(ctx, &row, query, sessionID, userID); err != nil {
		return nil, mapNotFound(err, store.ErrSessionNotFound)
	}
	return row.toDomain()
}

// Update implements store.SessionStore.Update.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.AssessmentSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	answers, result, err := encodeSessionState(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE assessment_sessions
		SET answers = $3, completed = $4, result = $5, completed_at = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		answers,
		session.Completed,
		result,
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update assessment session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrSessionNotFound)
}

// Delete implements store.SessionStore.Delete.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM assessment_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrSessionNotFound)
}

// ListByUser implements store.SessionStore.ListByUser.
func (s *PostgresSessionStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.SessionFilter,
) ([]*domain.AssessmentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM assessment_sessions
		WHERE user_id = $1
			AND ($2::uuid IS NULL OR exam_id = $2)
			AND (NOT $3 OR completed)
		ORDER BY started_at DESC
		LIMIT $4`

	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows, query,
		userID, filter.ExamID, filter.CompletedOnly, limitOr(filter.Limit, DefaultSessionListLimit))
	if err != nil {
		return nil, MapError(err)
	}

	out := make([]*domain.AssessmentSession, 0, len(rows))
	for _, r := range rows {
		session, err := r.toDomain()
		if err != nil {
			s.logger.ErrorContext(ctx, "skipping unreadable session",
				slog.String("session_id", r.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *PostgresSessionStore) WithTx(tx *sqlx.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
