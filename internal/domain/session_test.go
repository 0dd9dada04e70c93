package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newSession(t *testing.T, n int) *domain.AssessmentSession {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	s, err := domain.NewAssessmentSession(
		uuid.New(),
		uuid.New(),
		domain.SessionModeTimed,
		domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: n},
		domain.TimerConfig{},
		ids,
		time.Now(),
	)
	require.NoError(t, err)
	return s
}

func TestNewAssessmentSession(t *testing.T) {
	t.Parallel()

	s := newSession(t, 3)
	answers := s.Answers()
	require.Len(t, answers, 3)
	for i, a := range answers {
		assert.Equal(t, s.QuestionIDs[i], a.QuestionID)
		assert.Nil(t, a.IsCorrect)
		assert.Nil(t, a.SelectedChoiceIndex)
		assert.False(t, a.Flagged)
		assert.False(t, a.MarkedForReview)
	}
	assert.False(t, s.Completed)
	assert.Nil(t, s.Result)
}

func TestNewAssessmentSession_Validation(t *testing.T) {
	t.Parallel()

	dup := uuid.New()
	testCases := []struct {
		name        string
		mode        domain.SessionMode
		policy      domain.SelectionPolicy
		questionIDs []uuid.UUID
		wantErr     error
	}{
		{
			name:        "invalid mode",
			mode:        "sprint",
			policy:      domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 1},
			questionIDs: []uuid.UUID{uuid.New()},
			wantErr:     domain.ErrInvalidSessionMode,
		},
		{
			name:        "invalid source",
			mode:        domain.SessionModeTutor,
			policy:      domain.SelectionPolicy{Source: "random", QuestionCount: 1},
			questionIDs: []uuid.UUID{uuid.New()},
			wantErr:     domain.ErrInvalidSelectionSource,
		},
		{
			name:        "zero count",
			mode:        domain.SessionModeTutor,
			policy:      domain.SelectionPolicy{Source: domain.SourceAll},
			questionIDs: []uuid.UUID{uuid.New()},
			wantErr:     domain.ErrInvalidQuestionCount,
		},
		{
			name:    "no questions",
			mode:    domain.SessionModeTutor,
			policy:  domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 5},
			wantErr: domain.ErrSessionHasNoQuestions,
		},
		{
			name:        "duplicate question",
			mode:        domain.SessionModeTutor,
			policy:      domain.SelectionPolicy{Source: domain.SourceAll, QuestionCount: 2},
			questionIDs: []uuid.UUID{dup, dup},
			wantErr:     domain.ErrDuplicateSessionQuestion,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := domain.NewAssessmentSession(
				uuid.New(), uuid.New(), tc.mode, tc.policy, domain.TimerConfig{}, tc.questionIDs, time.Now(),
			)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRecordAnswer_OverwritesInPlace(t *testing.T) {
	t.Parallel()

	s := newSession(t, 2)
	q := s.QuestionIDs[1]
	now := time.Now()

	require.NoError(t, s.SetFlag(q, true, now))
	require.NoError(t, s.RecordAnswer(q, 0, false, intPtr(30), now))
	require.NoError(t, s.RecordAnswer(q, 2, true, nil, now))

	a, ok := s.Answer(q)
	require.True(t, ok)
	require.NotNil(t, a.SelectedChoiceIndex)
	assert.Equal(t, 2, *a.SelectedChoiceIndex)
	require.NotNil(t, a.IsCorrect)
	assert.True(t, *a.IsCorrect)
	assert.Nil(t, a.TimeSpentSeconds)
	assert.True(t, a.Flagged, "flag survives resubmission")
	assert.Len(t, s.Answers(), 2)
}

func TestRecordAnswer_UnknownQuestion(t *testing.T) {
	t.Parallel()

	s := newSession(t, 1)
	err := s.RecordAnswer(uuid.New(), 0, true, nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrQuestionNotInSession)
	assert.ErrorIs(t, s.SetFlag(uuid.New(), true, time.Now()), domain.ErrQuestionNotInSession)
}

func TestComplete_ScoresSession(t *testing.T) {
	t.Parallel()

	s := newSession(t, 10)
	now := time.Now()
	subjects := make(map[uuid.UUID]string)
	for i, id := range s.QuestionIDs {
		if i < 5 {
			subjects[id] = "Cardiology"
		} else {
			subjects[id] = "Renal"
		}
	}

	// 6 correct, 2 incorrect, 2 unanswered; both unanswered are renal.
	for i := 0; i < 6; i++ {
		require.NoError(t, s.RecordAnswer(s.QuestionIDs[i], 1, true, intPtr(10), now))
	}
	for i := 6; i < 8; i++ {
		require.NoError(t, s.RecordAnswer(s.QuestionIDs[i], 0, false, intPtr(5), now))
	}

	result, err := s.Complete(subjects, now)
	require.NoError(t, err)

	assert.Equal(t, 6, result.CorrectCount)
	assert.Equal(t, 2, result.IncorrectCount)
	assert.Equal(t, 2, result.SkippedCount)
	assert.InDelta(t, 60.0, result.ScorePercentage, 1e-9)
	assert.Equal(t, 70, result.TotalTimeSeconds)

	require.Len(t, result.BySubject, 2)
	assert.Equal(t, domain.SubjectScore{Subject: "Cardiology", Correct: 5, Total: 5, Percentage: 100}, result.BySubject[0])
	assert.Equal(t, "Renal", result.BySubject[1].Subject)
	assert.Equal(t, 1, result.BySubject[1].Correct)
	assert.Equal(t, 5, result.BySubject[1].Total)
	assert.InDelta(t, 20.0, result.BySubject[1].Percentage, 1e-9)

	assert.True(t, s.Completed)
	require.NotNil(t, s.CompletedAt)
}

func TestComplete_Twice(t *testing.T) {
	t.Parallel()

	s := newSession(t, 2)
	now := time.Now()
	require.NoError(t, s.RecordAnswer(s.QuestionIDs[0], 0, true, nil, now))

	first, err := s.Complete(nil, now)
	require.NoError(t, err)

	_, err = s.Complete(nil, now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	assert.Same(t, first, s.Result)
	assert.InDelta(t, 50.0, s.Result.ScorePercentage, 1e-9)

	assert.ErrorIs(t, s.RecordAnswer(s.QuestionIDs[1], 0, true, nil, now), domain.ErrSessionCompleted)
	assert.ErrorIs(t, s.SetFlag(s.QuestionIDs[1], true, now), domain.ErrSessionCompleted)
}

func TestComplete_UnknownSubjectStillReported(t *testing.T) {
	t.Parallel()

	s := newSession(t, 1)
	result, err := s.Complete(map[uuid.UUID]string{}, time.Now())
	require.NoError(t, err)
	require.Len(t, result.BySubject, 1)
	assert.Equal(t, domain.UnknownSubject, result.BySubject[0].Subject)
	assert.Equal(t, 0, result.BySubject[0].Correct)
	assert.Equal(t, 1, result.BySubject[0].Total)
}

func TestRestoreAnswers(t *testing.T) {
	t.Parallel()

	s := newSession(t, 2)
	answers := s.Answers()

	assert.ErrorIs(t, s.RestoreAnswers(answers[:1]), domain.ErrAnswersMisaligned)

	swapped := []domain.Answer{answers[1], answers[0]}
	assert.ErrorIs(t, s.RestoreAnswers(swapped), domain.ErrAnswersMisaligned)

	answers[0].Flagged = true
	require.NoError(t, s.RestoreAnswers(answers))
	a, _ := s.Answer(s.QuestionIDs[0])
	assert.True(t, a.Flagged)
}

func TestSummarizeSessions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.SessionStats{}, domain.SummarizeSessions(nil))

	mk := func(n int, score float64, completed bool) *domain.AssessmentSession {
		s := newSession(t, n)
		s.Completed = completed
		if completed {
			s.Result = &domain.SessionResult{ScorePercentage: score}
		}
		return s
	}

	stats := domain.SummarizeSessions([]*domain.AssessmentSession{
		mk(10, 40, true),
		mk(5, 80, true),
		mk(3, 0, false),
	})

	assert.Equal(t, 2, stats.TotalExams)
	assert.InDelta(t, 60.0, stats.AvgScore, 1e-9)
	assert.InDelta(t, 80.0, stats.HighestScore, 1e-9)
	assert.InDelta(t, 40.0, stats.LowestScore, 1e-9)
	assert.Equal(t, 15, stats.TotalQuestionsAttempted)
}
