package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
)

// QuestionFilter narrows the active question bank of one exam. Subject and
// topic filters intersect when both are given.
type QuestionFilter struct {
	ExamID   uuid.UUID
	Subjects []string
	Topics   []string
}

// QuestionStore reads the question bank. The bank is maintained by another
// system, so there are no write methods.
type QuestionStore interface {
	// GetByID retrieves a question by ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// GetByIDs retrieves the questions that still exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Question, error)

	// ListActive returns the active questions matching filter.
	ListActive(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error)
}
