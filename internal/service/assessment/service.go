// Package assessment builds practice sessions from a user's question pool,
// records answers against them and scores them once on completion.
package assessment

import (
	"context"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// DefaultListLimit caps ListSessions when no limit is given.
const DefaultListLimit = 50

// CreateRequest describes a new session.
type CreateRequest struct {
	ExamID uuid.UUID              `json:"exam_id" validate:"required"`
	Mode   domain.SessionMode     `json:"mode" validate:"required,oneof=tutor timed untimed"`
	Policy domain.SelectionPolicy `json:"selection_criteria"`
	Timer  domain.TimerConfig     `json:"timer"`
}

// AnswerResult acknowledges a submitted answer. IsCorrect is only set for
// tutor sessions.
type AnswerResult struct {
	Acknowledged bool  `json:"acknowledged"`
	IsCorrect    *bool `json:"is_correct,omitempty"`
}

// SessionWithQuestions is a session with its questions in session order.
// Questions that were removed from the bank since are omitted.
type SessionWithQuestions struct {
	Session   *domain.AssessmentSession
	Questions []*domain.Question
}

// Service defines the assessment session operations.
type Service interface {
	// CreateSession samples questions by the request's selection policy and
	// stores a new session. Returns service.ErrEmptySelection, without creating
	// anything, when the policy matches no question.
	CreateSession(ctx context.Context, userID uuid.UUID, req CreateRequest) (*domain.AssessmentSession, error)

	// SubmitAnswer grades and records an answer, replacing any earlier one for
	// the same question.
	SubmitAnswer(
		ctx context.Context,
		userID, sessionID, questionID uuid.UUID,
		choice int,
		elapsedSeconds *int,
	) (*AnswerResult, error)

	// FlagAnswer marks or unmarks a question of the session.
	FlagAnswer(ctx context.Context, userID, sessionID, questionID uuid.UUID, flagged bool) error

	// CompleteSession scores and freezes the session. A second call fails with
	// service.ErrAlreadyCompleted and leaves the stored result untouched.
	CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.SessionResult, error)

	// GetSession returns the session with its questions.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionWithQuestions, error)

	// ListSessions returns the user's sessions, newest first.
	ListSessions(
		ctx context.Context,
		userID uuid.UUID,
		examID *uuid.UUID,
		completedOnly bool,
		limit int,
	) ([]*domain.AssessmentSession, error)

	// Stats summarises the user's completed sessions.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.SessionStats, error)

	// DeleteSession removes the session.
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
}
