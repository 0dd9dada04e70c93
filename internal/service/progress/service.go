// Package progress tracks a user's latest outcome on each question. The
// assessment engine reads this history to build unused, incorrect and flagged
// selection pools.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// AnswerResult reports the outcome of a recorded answer.
type AnswerResult struct {
	IsCorrect bool                     `json:"is_correct"`
	Progress  *domain.QuestionProgress `json:"progress"`
}

// Service records and summarises per-question history.
type Service interface {
	// RecordAnswer grades choice against the question and folds the attempt into
	// the user's progress row, creating it on the first attempt.
	RecordAnswer(
		ctx context.Context,
		userID, questionID uuid.UUID,
		choice int,
		elapsedSeconds *int,
	) (*AnswerResult, error)

	// FlagQuestion marks the question flagged. Unflagging leaves the latest status
	// in place and is a no-op when the user has no history on the question.
	FlagQuestion(ctx context.Context, userID, questionID uuid.UUID, flagged bool) (*domain.QuestionProgress, error)

	// Stats aggregates the user's history.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.ProgressStats, error)

	// List returns progress rows, optionally restricted to one status.
	List(ctx context.Context, userID uuid.UUID, status *domain.ProgressStatus, limit int) ([]*domain.QuestionProgress, error)

	// Reset deletes the user's history on the question.
	// Returns store.ErrProgressNotFound if there is none.
	Reset(ctx context.Context, userID, questionID uuid.UUID) error
}

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tx        store.Transactor
	progress  store.ProgressStore
	questions store.QuestionStore
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the progress service.
type Option func(*serviceImpl)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// NewService creates a new progress Service.
func NewService(
	tx store.Transactor,
	progress store.ProgressStore,
	questions store.QuestionStore,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if progress == nil {
		return nil, domain.NewValidationError("progress", "cannot be nil", domain.ErrValidation)
	}
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:        tx,
		progress:  progress,
		questions: questions,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "progress_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordAnswer implements Service.RecordAnswer.
func (s *serviceImpl) RecordAnswer(
	ctx context.Context,
	userID, questionID uuid.UUID,
	choice int,
	elapsedSeconds *int,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if elapsedSeconds != nil && *elapsedSeconds < 0 {
		return nil, service.InvalidRequest(errors.New("elapsed seconds cannot be negative"))
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("record_answer", "failed to load question", err)
	}
	correct, err := question.IsCorrect(choice)
	if err != nil {
		return nil, service.InvalidRequest(err)
	}

	var recorded *domain.QuestionProgress
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		rows := s.progress.WithTx(tx)
		now := s.now()

		p, err := s.loadOrNew(ctx, rows, userID, questionID, domain.ProgressIncorrect, now)
		if err != nil {
			return err
		}
		p.RecordAttempt(choice, correct, elapsedSeconds, now)
		if err := rows.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		recorded = p
		return nil
	})
	if err != nil {
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID.String()))
		return nil, service.NewServiceError("record_answer", "failed to record answer", err)
	}

	return &AnswerResult{IsCorrect: correct, Progress: recorded}, nil
}

// FlagQuestion implements Service.FlagQuestion.
func (s *serviceImpl) FlagQuestion(
	ctx context.Context,
	userID, questionID uuid.UUID,
	flagged bool,
) (*domain.QuestionProgress, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("flag_question", "failed to load question", err)
	}

	var result *domain.QuestionProgress
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		rows := s.progress.WithTx(tx)
		now := s.now().UTC()

		p, err := rows.GetForUpdate(ctx, userID, questionID)
		switch {
		case errors.Is(err, store.ErrProgressNotFound):
			if !flagged {
				return nil
			}
			p, err = domain.NewQuestionProgress(userID, questionID, domain.ProgressFlagged, now)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if flagged {
				p.Status = domain.ProgressFlagged
			}
			p.LastAttemptAt = now
		}

		if err := rows.Upsert(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, service.NewServiceError("flag_question", "failed to update flag", err)
	}
	return result, nil
}

func (s *serviceImpl) loadOrNew(
	ctx context.Context,
	rows store.ProgressStore,
	userID, questionID uuid.UUID,
	status domain.ProgressStatus,
	now time.Time,
) (*domain.QuestionProgress, error) {
	p, err := rows.GetForUpdate(ctx, userID, questionID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return domain.NewQuestionProgress(userID, questionID, status, now)
}

// Stats implements Service.Stats.
func (s *serviceImpl) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProgressStats, error) {
	stats, err := s.progress.Stats(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError("progress_stats", "failed to aggregate progress", err)
	}
	return stats, nil
}

// List implements Service.List.
func (s *serviceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.ProgressStatus,
	limit int,
) ([]*domain.QuestionProgress, error) {
	if status != nil && !status.Valid() {
		return nil, service.InvalidRequest(domain.ErrInvalidProgressStatus)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.progress.List(ctx, userID, status, limit)
	if err != nil {
		return nil, service.NewServiceError("list_progress", "failed to list progress", err)
	}
	return rows, nil
}

// Reset implements Service.Reset.
func (s *serviceImpl) Reset(ctx context.Context, userID, questionID uuid.UUID) error {
	if err := s.progress.Delete(ctx, userID, questionID); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return service.NewServiceError("reset_progress", "failed to delete progress", err)
	}
	return nil
}
