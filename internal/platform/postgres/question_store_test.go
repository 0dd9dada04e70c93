package postgres_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/musaabMD/expoiosweb/internal/platform/postgres"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questionColumnNames = []string{
	"id", "exam_id", "text", "choices", "correct_choice_index", "explanation",
	"subject", "topic", "is_active", "created_at", "updated_at",
}

func TestPostgresQuestionStore_ListActiveFilters(t *testing.T) {
	t.Parallel()

	examID := uuid.New()
	subjects := []string{"Cardiology", "Renal"}
	topics := []string{"Arrhythmia"}

	tests := []struct {
		name      string
		filter    store.QuestionFilter
		wantWhere string
		wantArgs  []driver.Value
	}{
		{
			name:      "exam only",
			filter:    store.QuestionFilter{ExamID: examID},
			wantWhere: "WHERE exam_id = $1 AND is_active",
			wantArgs:  []driver.Value{examID},
		},
		{
			name:      "subjects only",
			filter:    store.QuestionFilter{ExamID: examID, Subjects: subjects},
			wantWhere: "WHERE exam_id = $1 AND is_active AND subject = ANY($2)",
			wantArgs:  []driver.Value{examID, pq.Array(subjects)},
		},
		{
			name:      "topics only",
			filter:    store.QuestionFilter{ExamID: examID, Topics: topics},
			wantWhere: "WHERE exam_id = $1 AND is_active AND topic = ANY($2)",
			wantArgs:  []driver.Value{examID, pq.Array(topics)},
		},
		{
			name:      "subjects and topics intersect",
			filter:    store.QuestionFilter{ExamID: examID, Subjects: subjects, Topics: topics},
			wantWhere: "WHERE exam_id = $1 AND is_active AND subject = ANY($2) AND topic = ANY($3)",
			wantArgs:  []driver.Value{examID, pq.Array(subjects), pq.Array(topics)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			s := postgres.NewPostgresQuestionStore(db, nil)

			now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
			qID := uuid.New()
			rows := sqlmock.NewRows(questionColumnNames).AddRow(
				qID.String(), examID.String(), "Which rhythm?", "{AF,VF,SVT}", 1, "Irregularly irregular.",
				"Cardiology", "Arrhythmia", true, now, now,
			)
			mock.ExpectQuery("FROM questions " + regexp.QuoteMeta(tc.wantWhere) + "$").
				WithArgs(tc.wantArgs...).
				WillReturnRows(rows)

			got, err := s.ListActive(context.Background(), tc.filter)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, qID, got[0].ID)
			assert.Equal(t, []string{"AF", "VF", "SVT"}, got[0].Choices)
			assert.Equal(t, 1, got[0].CorrectChoiceIndex)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresQuestionStore_ListActiveEmptyPool(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresQuestionStore(db, nil)

	mock.ExpectQuery("FROM questions").WillReturnRows(sqlmock.NewRows(questionColumnNames))

	got, err := s.ListActive(context.Background(), store.QuestionFilter{ExamID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQuestionStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresQuestionStore(db, nil)

		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(questionColumnNames))

		_, err := s.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, store.ErrQuestionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresQuestionStore(db, nil)

		mock.ExpectQuery("FROM questions").WillReturnError(errors.New("connection reset"))

		_, err := s.GetByID(context.Background(), uuid.New())
		require.Error(t, err)
		assert.False(t, store.IsNotFoundError(err))
	})
}
