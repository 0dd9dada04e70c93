package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionIsCorrect(t *testing.T) {
	t.Parallel()

	q := &domain.Question{
		ID:                 uuid.New(),
		ExamID:             uuid.New(),
		Text:               "Which drug causes dry cough?",
		Choices:            []string{"A", "B", "C", "D"},
		CorrectChoiceIndex: 2,
		Subject:            "Pharmacology",
	}
	require.NoError(t, q.Validate())

	ok, err := q.IsCorrect(2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.IsCorrect(0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = q.IsCorrect(4)
	assert.ErrorIs(t, err, domain.ErrInvalidChoiceIndex)
	_, err = q.IsCorrect(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidChoiceIndex)
}

func TestQuestionProgressRecordAttempt(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p, err := domain.NewQuestionProgress(uuid.New(), uuid.New(), domain.ProgressFlagged, now)
	require.NoError(t, err)

	p.RecordAttempt(1, false, intPtr(20), now)
	p.RecordAttempt(2, true, intPtr(15), now)
	p.RecordAttempt(2, true, nil, now)

	assert.Equal(t, domain.ProgressCorrect, p.Status)
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 2, p.CorrectAttempts)
	require.NotNil(t, p.TimeSpentSeconds)
	assert.Equal(t, 35, *p.TimeSpentSeconds)
	require.NotNil(t, p.SelectedChoiceIndex)
	assert.Equal(t, 2, *p.SelectedChoiceIndex)
}
