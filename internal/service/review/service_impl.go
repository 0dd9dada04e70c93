package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/domain/srs"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tx        store.Transactor
	cards     store.ReviewCardStore
	questions store.QuestionStore
	scheduler srs.Service
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the review service.
type Option func(*serviceImpl)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// NewService creates a new review Service.
// It returns an error if any of the required dependencies are nil.
func NewService(
	tx store.Transactor,
	cards store.ReviewCardStore,
	questions store.QuestionStore,
	scheduler srs.Service,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if scheduler == nil {
		return nil, domain.NewValidationError("scheduler", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:        tx,
		cards:     cards,
		questions: questions,
		scheduler: scheduler,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddToQueue implements Service.AddToQueue.
func (s *serviceImpl) AddToQueue(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("add_to_queue", "failed to load question", err)
	}

	card, err := domain.NewReviewCard(userID, questionID, s.now())
	if err != nil {
		return nil, service.InvalidRequest(err)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		switch {
		case errors.Is(err, store.ErrReviewCardExists):
			return nil, fmt.Errorf("%w: %w", service.ErrAlreadyExists, err)
		case store.IsNotFoundError(err):
			return nil, err
		}
		log.Error("failed to create review card",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID.String()))
		return nil, service.NewServiceError("add_to_queue", "failed to create card", err)
	}

	log.Debug("question added to review queue",
		slog.String("user_id", userID.String()),
		slog.String("question_id", questionID.String()))
	return card, nil
}

// SubmitReview implements Service.SubmitReview.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	userID, questionID uuid.UUID,
	rating domain.Rating,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.Valid() {
		log.Warn("invalid review rating",
			slog.String("user_id", userID.String()),
			slog.String("rating", string(rating)))
		return nil, service.InvalidRequest(domain.ErrInvalidRating)
	}

	var updated *domain.ReviewCard
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, userID, questionID)
		if err != nil {
			return err
		}

		next, err := s.scheduler.Schedule(card, rating, s.now())
		if err != nil {
			return fmt.Errorf("failed to schedule card: %w", err)
		}
		if err := cards.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID.String()))
		return nil, service.NewServiceError("submit_review", "failed to submit review", err)
	}

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("question_id", questionID.String()),
		slog.String("rating", string(rating)),
		slog.Int("interval_days", updated.IntervalDays),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Time("next_review_at", updated.NextReviewAt))

	return &Result{
		IntervalDays: updated.IntervalDays,
		Status:       updated.Status,
		NextReviewAt: updated.NextReviewAt,
		Card:         updated,
	}, nil
}

// DueCards implements Service.DueCards.
func (s *serviceImpl) DueCards(ctx context.Context, userID uuid.UUID, limit int) ([]CardWithQuestion, error) {
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	cards, err := s.cards.ListDue(ctx, userID, s.now(), limit)
	if err != nil {
		return nil, service.NewServiceError("due_cards", "failed to list due cards", err)
	}
	return s.withQuestions(ctx, "due_cards", cards)
}

// ListCards implements Service.ListCards.
func (s *serviceImpl) ListCards(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.CardStatus,
	limit int,
) ([]CardWithQuestion, error) {
	if status != nil && !status.Valid() {
		return nil, service.InvalidRequest(domain.ErrInvalidCardStatus)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	cards, err := s.cards.List(ctx, userID, status, limit)
	if err != nil {
		return nil, service.NewServiceError("list_cards", "failed to list cards", err)
	}
	return s.withQuestions(ctx, "list_cards", cards)
}

func (s *serviceImpl) withQuestions(
	ctx context.Context,
	op string,
	cards []*domain.ReviewCard,
) ([]CardWithQuestion, error) {
	out := make([]CardWithQuestion, 0, len(cards))
	if len(cards) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.QuestionID)
	}
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, service.NewServiceError(op, "failed to load questions", err)
	}
	byID := make(map[uuid.UUID]*domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, c := range cards {
		out = append(out, CardWithQuestion{Card: c, Question: byID[c.QuestionID]})
	}
	return out, nil
}

// Stats implements Service.Stats.
func (s *serviceImpl) Stats(ctx context.Context, userID uuid.UUID) (*domain.ReviewStats, error) {
	stats, err := s.cards.Stats(ctx, userID, s.now())
	if err != nil {
		return nil, service.NewServiceError("review_stats", "failed to count cards", err)
	}
	return stats, nil
}

// RemoveFromQueue implements Service.RemoveFromQueue.
func (s *serviceImpl) RemoveFromQueue(ctx context.Context, userID, questionID uuid.UUID) error {
	if err := s.cards.Delete(ctx, userID, questionID); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return service.NewServiceError("remove_from_queue", "failed to delete card", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("card removed from review queue",
		slog.String("user_id", userID.String()),
		slog.String("question_id", questionID.String()))
	return nil
}

// ResetCard implements Service.ResetCard.
func (s *serviceImpl) ResetCard(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	var card *domain.ReviewCard
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cards.WithTx(tx)

		c, err := cards.GetForUpdate(ctx, userID, questionID)
		if err != nil {
			return err
		}
		c.Reset(s.now())
		if err := cards.Update(ctx, c); err != nil {
			return err
		}
		card = c
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("reset_card", "failed to reset card", err)
	}
	return card, nil
}
