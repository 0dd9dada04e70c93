package postgres

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// PostgresQuestionStore implements the read-only store.QuestionStore interface.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

type questionRow struct {
	ID                 uuid.UUID      `db:"id"`
	ExamID             uuid.UUID      `db:"exam_id"`
	Text               string         `db:"text"`
	Choices            pq.StringArray `db:"choices"`
	CorrectChoiceIndex int            `db:"correct_choice_index"`
	Explanation        string         `db:"explanation"`
	Subject            string         `db:"subject"`
	Topic              string         `db:"topic"`
	IsActive           bool           `db:"is_active"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r questionRow) toDomain() *domain.Question {
	return &domain.Question{
		ID:                 r.ID,
		ExamID:             r.ExamID,
		Text:               r.Text,
		Choices:            []string(r.Choices),
		CorrectChoiceIndex: r.CorrectChoiceIndex,
		Explanation:        r.Explanation,
		Subject:            r.Subject,
		Topic:              r.Topic,
		IsActive:           r.IsActive,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

const questionColumns = `id, exam_id, text, choices, correct_choice_index, explanation,
	subject, topic, is_active, created_at, updated_at`

// GetByID implements store.QuestionStore.GetByID.
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	var row questionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	if err != nil {
		return nil, mapNotFound(err, store.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

// GetByIDs implements store.QuestionStore.GetByIDs.
func (s *PostgresQuestionStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Question, error) {
	if len(ids) == 0 {
		return []*domain.Question{}, nil
	}

	var rows []questionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(ids)))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load questions",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return questionsFromRows(rows), nil
}

// ListActive implements store.QuestionStore.ListActive.
func (s *PostgresQuestionStore) ListActive(
	ctx context.Context,
	filter store.QuestionFilter,
) ([]*domain.Question, error) {
	var (
		conds = []string{"exam_id = $1", "is_active"}
		args  = []any{filter.ExamID}
	)
	if len(filter.Subjects) > 0 {
		args = append(args, pq.Array(filter.Subjects))
		conds = append(conds, "subject = ANY($"+itoa(len(args))+")")
	}
	if len(filter.Topics) > 0 {
		args = append(args, pq.Array(filter.Topics))
		conds = append(conds, "topic = ANY($"+itoa(len(args))+")")
	}

	query := `SELECT ` + questionColumns + ` FROM questions WHERE ` + strings.Join(conds, " AND ")

	var rows []questionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "failed to list active questions",
			slog.String("exam_id", filter.ExamID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return questionsFromRows(rows), nil
}

func questionsFromRows(rows []questionRow) []*domain.Question {
	out := make([]*domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
