package assessment_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/mocks"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/service/assessment"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	sessions  *mocks.SessionStore
	questions *mocks.QuestionStore
	progress  *mocks.ProgressStore
	svc       assessment.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  &mocks.SessionStore{},
		questions: &mocks.QuestionStore{},
		progress:  &mocks.ProgressStore{},
	}
	var err error
	f.svc, err = assessment.NewService(&mocks.Transactor{}, f.sessions, f.questions, f.progress, nil,
		assessment.WithClock(func() time.Time { return fixedNow }),
		assessment.WithRand(rand.New(rand.NewPCG(7, 11))))
	require.NoError(t, err)
	return f
}

func makeQuestion(examID uuid.UUID, subject string) *domain.Question {
	return &domain.Question{
		ID:                 uuid.New(),
		ExamID:             examID,
		Text:               "Question about " + subject,
		Choices:            []string{"A", "B", "C", "D"},
		CorrectChoiceIndex: 1,
		Subject:            subject,
		Topic:              "General",
		IsActive:           true,
	}
}

func ids(questions []*domain.Question) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func newSession(t *testing.T, mode domain.SessionMode, questions []*domain.Question) *domain.AssessmentSession {
	t.Helper()
	s, err := domain.NewAssessmentSession(uuid.New(), questions[0].ExamID, mode,
		domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: len(questions)},
		domain.TimerConfig{}, ids(questions), fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	return s
}

func TestNewService_NilDependencies(t *testing.T) {
	t.Parallel()

	_, err := assessment.NewService(nil, &mocks.SessionStore{}, &mocks.QuestionStore{}, &mocks.ProgressStore{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = assessment.NewService(&mocks.Transactor{}, &mocks.SessionStore{}, &mocks.QuestionStore{}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateSession_SelectionSources(t *testing.T) {
	t.Parallel()

	examID := uuid.New()
	bank := []*domain.Question{
		makeQuestion(examID, "Cardiology"),
		makeQuestion(examID, "Cardiology"),
		makeQuestion(examID, "Nephrology"),
		makeQuestion(examID, "Nephrology"),
	}
	history := map[uuid.UUID]domain.ProgressStatus{
		bank[0].ID: domain.ProgressCorrect,
		bank[1].ID: domain.ProgressIncorrect,
		bank[2].ID: domain.ProgressFlagged,
	}

	tests := []struct {
		name        string
		source      domain.SelectionSource
		wantIDs     []uuid.UUID
		wantHistory bool
	}{
		{name: "all", source: domain.SourceAll, wantIDs: ids(bank)},
		{name: "custom", source: domain.SourceCustom, wantIDs: ids(bank)},
		{name: "unused", source: domain.SourceUnused, wantIDs: []uuid.UUID{bank[3].ID}, wantHistory: true},
		{name: "incorrect", source: domain.SourceIncorrect, wantIDs: []uuid.UUID{bank[1].ID}, wantHistory: true},
		{name: "flagged", source: domain.SourceFlagged, wantIDs: []uuid.UUID{bank[2].ID}, wantHistory: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			userID := uuid.New()

			pool := make([]*domain.Question, len(bank))
			copy(pool, bank)
			f.questions.On("ListActive", mock.Anything, store.QuestionFilter{ExamID: examID}).Return(pool, nil)
			f.progress.On("StatusByQuestion", mock.Anything, userID).Return(history, nil)
			f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

			session, err := f.svc.CreateSession(context.Background(), userID, assessment.CreateRequest{
				ExamID: examID,
				Mode:   domain.SessionModeTimed,
				Policy: domain.SelectionPolicy{Source: tt.source, QuestionCount: 10},
			})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.wantIDs, session.QuestionIDs)
			assert.Len(t, session.Answers(), len(tt.wantIDs))
			for _, a := range session.Answers() {
				assert.Nil(t, a.IsCorrect)
				assert.False(t, a.Flagged)
				assert.False(t, a.MarkedForReview)
			}
			if !tt.wantHistory {
				f.progress.AssertNotCalled(t, "StatusByQuestion", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCreateSession_SamplesWithoutReplacement(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	examID := uuid.New()
	bank := make([]*domain.Question, 0, 20)
	for i := 0; i < 20; i++ {
		bank = append(bank, makeQuestion(examID, "Pharmacology"))
	}
	f.questions.On("ListActive", mock.Anything, mock.Anything).Return(bank, nil)
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	session, err := f.svc.CreateSession(context.Background(), uuid.New(), assessment.CreateRequest{
		ExamID: examID,
		Mode:   domain.SessionModeUntimed,
		Policy: domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 5},
	})
	require.NoError(t, err)
	require.Len(t, session.QuestionIDs, 5)

	seen := map[uuid.UUID]bool{}
	for _, id := range session.QuestionIDs {
		assert.False(t, seen[id], "question selected twice")
		seen[id] = true
		assert.Contains(t, ids(bank), id)
	}
}

func TestCreateSession_EmptySelection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	userID, examID := uuid.New(), uuid.New()
	f.questions.On("ListActive", mock.Anything, mock.Anything).Return([]*domain.Question{}, nil)
	f.progress.On("StatusByQuestion", mock.Anything, userID).Return(map[uuid.UUID]domain.ProgressStatus{}, nil)

	_, err := f.svc.CreateSession(context.Background(), userID, assessment.CreateRequest{
		ExamID: examID,
		Mode:   domain.SessionModeTutor,
		Policy: domain.SelectionPolicy{Source: domain.SourceFlagged, QuestionCount: 10},
	})
	assert.ErrorIs(t, err, service.ErrEmptySelection)
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSession_InvalidRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.CreateSession(context.Background(), uuid.New(), assessment.CreateRequest{
		ExamID: uuid.New(),
		Mode:   domain.SessionModeTutor,
		Policy: domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 0},
	})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
	assert.ErrorIs(t, err, domain.ErrInvalidQuestionCount)
}

func TestCreateSession_HistoryFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	userID := uuid.New()
	f.questions.On("ListActive", mock.Anything, mock.Anything).Return([]*domain.Question{}, nil)
	f.progress.On("StatusByQuestion", mock.Anything, userID).Return(nil, errors.New("connection reset"))

	_, err := f.svc.CreateSession(context.Background(), userID, assessment.CreateRequest{
		ExamID: uuid.New(),
		Mode:   domain.SessionModeTutor,
		Policy: domain.SelectionPolicy{Source: domain.SourceUnused, QuestionCount: 3},
	})
	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_session", serviceErr.Operation)
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()

	examID := uuid.New()
	q := makeQuestion(examID, "Cardiology")
	other := makeQuestion(examID, "Cardiology")

	t.Run("tutor mode reveals correctness", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		session := newSession(t, domain.SessionModeTutor, []*domain.Question{q, other})
		f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)
		f.questions.On("GetByID", mock.Anything, q.ID).Return(q, nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.SubmitAnswer(context.Background(), session.UserID, session.ID, q.ID, 1, nil)
		require.NoError(t, err)
		assert.True(t, result.Acknowledged)
		require.NotNil(t, result.IsCorrect)
		assert.True(t, *result.IsCorrect)

		a, _ := session.Answer(q.ID)
		assert.Equal(t, 1, *a.SelectedChoiceIndex)
	})

	t.Run("timed mode conceals correctness", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		session := newSession(t, domain.SessionModeTimed, []*domain.Question{q, other})
		f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)
		f.questions.On("GetByID", mock.Anything, q.ID).Return(q, nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		elapsed := 30
		result, err := f.svc.SubmitAnswer(context.Background(), session.UserID, session.ID, q.ID, 2, &elapsed)
		require.NoError(t, err)
		assert.True(t, result.Acknowledged)
		assert.Nil(t, result.IsCorrect)

		a, _ := session.Answer(q.ID)
		assert.False(t, *a.IsCorrect)
		assert.Equal(t, 30, *a.TimeSpentSeconds)
	})

	t.Run("question outside the session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		session := newSession(t, domain.SessionModeTutor, []*domain.Question{q})
		f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)

		_, err := f.svc.SubmitAnswer(context.Background(), session.UserID, session.ID, uuid.New(), 1, nil)
		assert.True(t, store.IsNotFoundError(err))
		f.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("completed session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		session := newSession(t, domain.SessionModeTutor, []*domain.Question{q})
		_, err := session.Complete(nil, fixedNow)
		require.NoError(t, err)
		f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)

		_, err = f.svc.SubmitAnswer(context.Background(), session.UserID, session.ID, q.ID, 1, nil)
		assert.ErrorIs(t, err, service.ErrAlreadyCompleted)
	})

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		userID, sessionID := uuid.New(), uuid.New()
		f.sessions.On("GetForUpdate", mock.Anything, userID, sessionID).Return(nil, store.ErrSessionNotFound)

		_, err := f.svc.SubmitAnswer(context.Background(), userID, sessionID, q.ID, 1, nil)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("choice out of range", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		session := newSession(t, domain.SessionModeTutor, []*domain.Question{q})
		f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)
		f.questions.On("GetByID", mock.Anything, q.ID).Return(q, nil)

		_, err := f.svc.SubmitAnswer(context.Background(), session.UserID, session.ID, q.ID, 9, nil)
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
	})
}

func TestFlagAnswer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	q := makeQuestion(uuid.New(), "Neurology")
	session := newSession(t, domain.SessionModeUntimed, []*domain.Question{q})
	f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)
	f.sessions.On("Update", mock.Anything, session).Return(nil)

	require.NoError(t, f.svc.FlagAnswer(context.Background(), session.UserID, session.ID, q.ID, true))
	a, _ := session.Answer(q.ID)
	assert.True(t, a.Flagged)
}

func TestCompleteSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	examID := uuid.New()
	questions := make([]*domain.Question, 0, 10)
	for i := 0; i < 10; i++ {
		subject := "Cardiology"
		if i%2 == 1 {
			subject = "Nephrology"
		}
		questions = append(questions, makeQuestion(examID, subject))
	}
	session := newSession(t, domain.SessionModeTimed, questions)
	for i, q := range questions[:8] {
		require.NoError(t, session.RecordAnswer(q.ID, 1, i < 6, nil, fixedNow))
	}

	f.sessions.On("GetForUpdate", mock.Anything, session.UserID, session.ID).Return(session, nil)
	f.questions.On("GetByIDs", mock.Anything, session.QuestionIDs).Return(questions, nil)
	f.sessions.On("Update", mock.Anything, session).Return(nil).Once()

	result, err := f.svc.CompleteSession(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, result.ScorePercentage, 1e-9)
	assert.Equal(t, 6, result.CorrectCount)
	assert.Equal(t, 2, result.IncorrectCount)
	assert.Equal(t, 2, result.SkippedCount)
	require.Len(t, result.BySubject, 2)
	assert.Equal(t, "Cardiology", result.BySubject[0].Subject)
	assert.Equal(t, 5, result.BySubject[0].Total)
	assert.True(t, session.Completed)
	assert.Equal(t, fixedNow, *session.CompletedAt)

	_, err = f.svc.CompleteSession(context.Background(), session.UserID, session.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyCompleted)
	assert.Same(t, result, session.Result)
	f.sessions.AssertNumberOfCalls(t, "Update", 1)
}

func TestGetSession_OrdersQuestions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	examID := uuid.New()
	questions := []*domain.Question{
		makeQuestion(examID, "A"),
		makeQuestion(examID, "B"),
		makeQuestion(examID, "C"),
	}
	session := newSession(t, domain.SessionModeTutor, questions)
	f.sessions.On("Get", mock.Anything, session.UserID, session.ID).Return(session, nil)
	f.questions.On("GetByIDs", mock.Anything, session.QuestionIDs).
		Return([]*domain.Question{questions[2], questions[0]}, nil)

	got, err := f.svc.GetSession(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []*domain.Question{questions[0], questions[2]}, got.Questions)
}

func TestGetSession_OtherUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	userID, sessionID := uuid.New(), uuid.New()
	f.sessions.On("Get", mock.Anything, userID, sessionID).Return(nil, store.ErrSessionNotFound)

	_, err := f.svc.GetSession(context.Background(), userID, sessionID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestListSessions_DefaultsLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	userID := uuid.New()
	f.sessions.On("ListByUser", mock.Anything, userID, store.SessionFilter{Limit: assessment.DefaultListLimit}).
		Return([]*domain.AssessmentSession{}, nil)

	sessions, err := f.svc.ListSessions(context.Background(), userID, nil, false, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	q := makeQuestion(uuid.New(), "Cardiology")
	first := newSession(t, domain.SessionModeTimed, []*domain.Question{q})
	require.NoError(t, first.RecordAnswer(q.ID, 1, true, nil, fixedNow))
	_, err := first.Complete(nil, fixedNow)
	require.NoError(t, err)
	second := newSession(t, domain.SessionModeTimed, []*domain.Question{q})
	_, err = second.Complete(nil, fixedNow)
	require.NoError(t, err)

	userID := uuid.New()
	f.sessions.On("ListByUser", mock.Anything, userID, mock.MatchedBy(func(filter store.SessionFilter) bool {
		return filter.CompletedOnly
	})).Return([]*domain.AssessmentSession{first, second}, nil)

	stats, err := f.svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalExams)
	assert.InDelta(t, 50.0, stats.AvgScore, 1e-9)
	assert.InDelta(t, 100.0, stats.HighestScore, 1e-9)
	assert.InDelta(t, 0.0, stats.LowestScore, 1e-9)
	assert.Equal(t, 2, stats.TotalQuestionsAttempted)
}

func TestDeleteSession_Missing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	userID, sessionID := uuid.New(), uuid.New()
	f.sessions.On("Delete", mock.Anything, userID, sessionID).Return(store.ErrSessionNotFound)

	assert.ErrorIs(t, f.svc.DeleteSession(context.Background(), userID, sessionID), store.ErrSessionNotFound)
}
