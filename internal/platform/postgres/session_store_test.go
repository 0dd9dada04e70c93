package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/postgres"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumnNames = []string{
	"id", "user_id", "exam_id", "mode", "source", "subjects", "topics", "question_count",
	"has_timer", "time_limit_minutes", "time_per_question_seconds", "question_ids",
	"answers", "completed", "result", "started_at", "completed_at", "updated_at",
}

func TestPostgresSessionStore_GetDecodesAnswers(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	userID, sessionID, examID := uuid.New(), uuid.New(), uuid.New()
	q1, q2 := uuid.New(), uuid.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	answers := `[{"question_id":"` + q1.String() + `","selected_choice_index":2,"is_correct":true,"flagged":false,"marked_for_review":false},` +
		`{"question_id":"` + q2.String() + `","flagged":true,"marked_for_review":false}]`

	rows := sqlmock.NewRows(sessionColumnNames).AddRow(
		sessionID.String(), userID.String(), examID.String(), "tutor", "all", "{Cardiology}", "{}", 2,
		false, nil, nil, "{"+q1.String()+","+q2.String()+"}",
		[]byte(answers), false, nil, now, nil, now,
	)
	mock.ExpectQuery("FROM assessment_sessions\\s+WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(sessionID, userID).
		WillReturnRows(rows)

	session, err := s.Get(context.Background(), userID, sessionID)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{q1, q2}, session.QuestionIDs)
	assert.Equal(t, []string{"Cardiology"}, session.Policy.Subjects)
	assert.Nil(t, session.Result)

	first, ok := session.Answer(q1)
	require.True(t, ok)
	require.NotNil(t, first.IsCorrect)
	assert.True(t, *first.IsCorrect)
	assert.Equal(t, 2, *first.SelectedChoiceIndex)

	second, ok := session.Answer(q2)
	require.True(t, ok)
	assert.Nil(t, second.IsCorrect)
	assert.True(t, second.Flagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionStore_GetOtherUsersSession(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	mock.ExpectQuery("FROM assessment_sessions").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestPostgresSessionStore_GetRejectsMisalignedAnswers(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	q1 := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows(sessionColumnNames).AddRow(
		uuid.NewString(), uuid.NewString(), uuid.NewString(), "timed", "all", "{}", "{}", 1,
		true, 30, nil, "{"+q1.String()+"}",
		[]byte(`[]`), false, nil, now, nil, now,
	)
	mock.ExpectQuery("FROM assessment_sessions").WillReturnRows(rows)

	_, err := s.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAnswersMisaligned)
}

func TestPostgresSessionStore_CreateAndUpdate(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	q1 := uuid.New()
	session, err := domain.NewAssessmentSession(
		uuid.New(), uuid.New(), domain.SessionModeTutor,
		domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 1},
		domain.TimerConfig{},
		[]uuid.UUID{q1},
		now,
	)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO assessment_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(context.Background(), session))

	require.NoError(t, session.RecordAnswer(q1, 1, true, nil, now))
	_, err = session.Complete(map[uuid.UUID]string{q1: "Renal"}, now)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE assessment_sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.Update(context.Background(), session)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
