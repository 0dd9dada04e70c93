package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/store"
	"golang.org/x/sync/errgroup"
)

// statsSessionLimit bounds how many completed sessions Stats reads.
const statsSessionLimit = 1000

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tx        store.Transactor
	sessions  store.SessionStore
	questions store.QuestionStore
	progress  store.ProgressStore
	now       func() time.Time
	logger    *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// Option configures the assessment service.
type Option func(*serviceImpl)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// WithRand replaces the random source used for question sampling.
func WithRand(r *rand.Rand) Option {
	return func(s *serviceImpl) { s.rand = r }
}

// NewService creates a new assessment Service.
func NewService(
	tx store.Transactor,
	sessions store.SessionStore,
	questions store.QuestionStore,
	progress store.ProgressStore,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if progress == nil {
		return nil, domain.NewValidationError("progress", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:        tx,
		sessions:  sessions,
		questions: questions,
		progress:  progress,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "assessment_service")),
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateSession implements Service.CreateSession.
func (s *serviceImpl) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	req CreateRequest,
) (*domain.AssessmentSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !req.Mode.Valid() {
		return nil, service.InvalidRequest(domain.ErrInvalidSessionMode)
	}
	if err := req.Policy.Validate(); err != nil {
		return nil, service.InvalidRequest(err)
	}

	pool, err := s.eligibleQuestions(ctx, userID, req.ExamID, req.Policy)
	if err != nil {
		return nil, service.NewServiceError("create_session", "failed to build question pool", err)
	}
	if len(pool) == 0 {
		log.Info("selection matched no questions",
			slog.String("user_id", userID.String()),
			slog.String("exam_id", req.ExamID.String()),
			slog.String("source", string(req.Policy.Source)))
		return nil, service.ErrEmptySelection
	}

	selected := s.sample(pool, req.Policy.QuestionCount)
	session, err := domain.NewAssessmentSession(userID, req.ExamID, req.Mode, req.Policy, req.Timer, selected, s.now())
	if err != nil {
		return nil, service.InvalidRequest(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, service.NewServiceError("create_session", "failed to save session", err)
	}

	log.Info("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("mode", string(req.Mode)),
		slog.Int("question_count", len(selected)))
	return session, nil
}

// eligibleQuestions loads the active questions in scope and the user's
// history concurrently, then applies the selection source.
func (s *serviceImpl) eligibleQuestions(
	ctx context.Context,
	userID, examID uuid.UUID,
	policy domain.SelectionPolicy,
) ([]uuid.UUID, error) {
	var (
		questions []*domain.Question
		history   map[uuid.UUID]domain.ProgressStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = s.questions.ListActive(gctx, store.QuestionFilter{
			ExamID:   examID,
			Subjects: policy.Subjects,
			Topics:   policy.Topics,
		})
		return err
	})
	if needsHistory(policy.Source) {
		g.Go(func() error {
			var err error
			history, err = s.progress.StatusByQuestion(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		status, seen := history[q.ID]
		switch policy.Source {
		case domain.SourceUnused:
			if seen {
				continue
			}
		case domain.SourceIncorrect:
			if status != domain.ProgressIncorrect {
				continue
			}
		case domain.SourceFlagged:
			if status != domain.ProgressFlagged {
				continue
			}
		}
		pool = append(pool, q.ID)
	}
	return pool, nil
}

func needsHistory(source domain.SelectionSource) bool {
	switch source {
	case domain.SourceUnused, domain.SourceIncorrect, domain.SourceFlagged:
		return true
	default:
		return false
	}
}

// sample draws up to n ids uniformly without replacement using a partial
// Fisher-Yates shuffle. pool is reordered in place.
func (s *serviceImpl) sample(pool []uuid.UUID, n int) []uuid.UUID {
	if n > len(pool) {
		n = len(pool)
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	for i := 0; i < n; i++ {
		j := i + s.rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// SubmitAnswer implements Service.SubmitAnswer.
func (s *serviceImpl) SubmitAnswer(
	ctx context.Context,
	userID, sessionID, questionID uuid.UUID,
	choice int,
	elapsedSeconds *int,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if elapsedSeconds != nil && *elapsedSeconds < 0 {
		return nil, service.InvalidRequest(errors.New("elapsed seconds cannot be negative"))
	}

	var (
		correct bool
		mode    domain.SessionMode
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := sessions.GetForUpdate(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return domain.ErrSessionCompleted
		}
		if _, ok := session.Answer(questionID); !ok {
			return domain.ErrQuestionNotInSession
		}

		question, err := s.questions.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		correct, err = question.IsCorrect(choice)
		if err != nil {
			return err
		}

		if err := session.RecordAnswer(questionID, choice, correct, elapsedSeconds, s.now()); err != nil {
			return err
		}
		mode = session.Mode
		return sessions.Update(ctx, session)
	})
	if err != nil {
		return nil, s.mapSessionError(ctx, "submit_answer", "failed to record answer", err, sessionID)
	}

	log.Debug("answer recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("question_id", questionID.String()))

	result := &AnswerResult{Acknowledged: true}
	if mode == domain.SessionModeTutor {
		result.IsCorrect = &correct
	}
	return result, nil
}

// FlagAnswer implements Service.FlagAnswer.
func (s *serviceImpl) FlagAnswer(
	ctx context.Context,
	userID, sessionID, questionID uuid.UUID,
	flagged bool,
) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := sessions.GetForUpdate(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if err := session.SetFlag(questionID, flagged, s.now()); err != nil {
			return err
		}
		return sessions.Update(ctx, session)
	})
	if err != nil {
		return s.mapSessionError(ctx, "flag_answer", "failed to flag question", err, sessionID)
	}
	return nil
}

// CompleteSession implements Service.CompleteSession.
func (s *serviceImpl) CompleteSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.SessionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *domain.SessionResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := sessions.GetForUpdate(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return domain.ErrSessionCompleted
		}

		questions, err := s.questions.GetByIDs(ctx, session.QuestionIDs)
		if err != nil {
			return fmt.Errorf("failed to load session questions: %w", err)
		}
		subjects := make(map[uuid.UUID]string, len(questions))
		for _, q := range questions {
			subjects[q.ID] = q.Subject
		}

		result, err = session.Complete(subjects, s.now())
		if err != nil {
			return err
		}
		return sessions.Update(ctx, session)
	})
	if err != nil {
		return nil, s.mapSessionError(ctx, "complete_session", "failed to complete session", err, sessionID)
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Float64("score_percentage", result.ScorePercentage),
		slog.Int("correct", result.CorrectCount),
		slog.Int("incorrect", result.IncorrectCount),
		slog.Int("skipped", result.SkippedCount))
	return result, nil
}

// mapSessionError translates failures of a session transaction into the
// service error vocabulary.
func (s *serviceImpl) mapSessionError(ctx context.Context, op, msg string, err error, sessionID uuid.UUID) error {
	switch {
	case store.IsNotFoundError(err):
		return err
	case errors.Is(err, domain.ErrSessionCompleted):
		return fmt.Errorf("%w: %w", service.ErrAlreadyCompleted, err)
	case errors.Is(err, domain.ErrQuestionNotInSession):
		return fmt.Errorf("%w: %w", store.ErrQuestionNotFound, err)
	case errors.Is(err, domain.ErrInvalidChoiceIndex):
		return service.InvalidRequest(err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Error(msg,
		slog.String("error", err.Error()),
		slog.String("session_id", sessionID.String()))
	return service.NewServiceError(op, msg, err)
}

// GetSession implements Service.GetSession.
func (s *serviceImpl) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionWithQuestions, error) {
	session, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("get_session", "failed to load session", err)
	}

	questions, err := s.questions.GetByIDs(ctx, session.QuestionIDs)
	if err != nil {
		return nil, service.NewServiceError("get_session", "failed to load questions", err)
	}
	byID := make(map[uuid.UUID]*domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]*domain.Question, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}

	return &SessionWithQuestions{Session: session, Questions: ordered}, nil
}

// ListSessions implements Service.ListSessions.
func (s *serviceImpl) ListSessions(
	ctx context.Context,
	userID uuid.UUID,
	examID *uuid.UUID,
	completedOnly bool,
	limit int,
) ([]*domain.AssessmentSession, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, store.SessionFilter{
		ExamID:        examID,
		CompletedOnly: completedOnly,
		Limit:         limit,
	})
	if err != nil {
		return nil, service.NewServiceError("list_sessions", "failed to list sessions", err)
	}
	return sessions, nil
}

// Stats implements Service.Stats.
func (s *serviceImpl) Stats(ctx context.Context, userID uuid.UUID) (*domain.SessionStats, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, store.SessionFilter{
		CompletedOnly: true,
		Limit:         statsSessionLimit,
	})
	if err != nil {
		return nil, service.NewServiceError("session_stats", "failed to list sessions", err)
	}
	stats := domain.SummarizeSessions(sessions)
	return &stats, nil
}

// DeleteSession implements Service.DeleteSession.
func (s *serviceImpl) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, userID, sessionID); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return service.NewServiceError("delete_session", "failed to delete session", err)
	}
	return nil
}
