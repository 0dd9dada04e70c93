package billing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/events"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/store"
)

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tx            store.Transactor
	users         store.UserStore
	subscriptions store.SubscriptionStore
	audit         store.SubscriptionEventStore
	receipts      store.WebhookReceiptStore
	emitter       events.EventEmitter
	verifier      SignatureVerifier
	sweepBatch    int
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures the billing service.
type Option func(*serviceImpl)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// WithEmitter publishes a transition event after every committed state change.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(s *serviceImpl) { s.emitter = emitter }
}

// WithVerifier replaces the webhook signature check.
func WithVerifier(v SignatureVerifier) Option {
	return func(s *serviceImpl) { s.verifier = v }
}

// WithSweepBatch sets how many subscriptions one sweep pass locks.
func WithSweepBatch(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// NewService creates a new billing Service.
// It returns an error if any of the required dependencies are nil.
func NewService(
	tx store.Transactor,
	users store.UserStore,
	subscriptions store.SubscriptionStore,
	audit store.SubscriptionEventStore,
	receipts store.WebhookReceiptStore,
	logger *slog.Logger,
	opts ...Option,
) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if subscriptions == nil {
		return nil, domain.NewValidationError("subscriptions", "cannot be nil", domain.ErrValidation)
	}
	if audit == nil {
		return nil, domain.NewValidationError("audit", "cannot be nil", domain.ErrValidation)
	}
	if receipts == nil {
		return nil, domain.NewValidationError("receipts", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:            tx,
		users:         users,
		subscriptions: subscriptions,
		audit:         audit,
		receipts:      receipts,
		verifier:      RequireStripeSignature{},
		sweepBatch:    DefaultSweepBatch,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "billing_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// transition is a committed state change waiting to be published.
type transition struct {
	audit *domain.SubscriptionEvent
	sub   *domain.Subscription
}

// record appends the audit row for a change to sub and queues it for publishing.
func (s *serviceImpl) record(
	ctx context.Context,
	audit store.SubscriptionEventStore,
	sub *domain.Subscription,
	eventType domain.SubscriptionEventType,
	previous *domain.SubscriptionStatus,
	metadata json.RawMessage,
	webhookEventID string,
	now time.Time,
	out *[]transition,
) error {
	ev := domain.NewSubscriptionEvent(sub, eventType, previous, metadata, webhookEventID, now)
	if err := audit.Append(ctx, ev); err != nil {
		return err
	}
	snapshot := *sub
	*out = append(*out, transition{audit: ev, sub: &snapshot})
	return nil
}

// publish emits committed transitions. Delivery failures are logged only; the
// audit log remains the source of truth.
func (s *serviceImpl) publish(ctx context.Context, transitions []transition) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)
	for _, t := range transitions {
		event, err := events.NewSubscriptionTransitionEvent(t.audit, t.sub)
		if err != nil {
			log.Error("failed to build transition event",
				slog.String("error", err.Error()),
				slog.String("subscription_id", t.sub.ID.String()))
			continue
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("failed to publish transition event",
				slog.String("error", err.Error()),
				slog.String("event_id", event.ID.String()))
		}
	}
}

// Info implements Service.Info.
func (s *serviceImpl) Info(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionInfo, error) {
	sub, err := s.subscriptions.GetActiveForUser(ctx, userID)
	if err != nil && !store.IsNotFoundError(err) {
		return nil, service.NewServiceError("subscription_info", "failed to load subscription", err)
	}
	info := domain.NewSubscriptionInfo(sub, s.now())
	return &info, nil
}

// HasActive implements Service.HasActive.
func (s *serviceImpl) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.subscriptions.GetActiveForUser(ctx, userID)
	if store.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, service.NewServiceError("has_active_subscription", "failed to load subscription", err)
	}
	return sub.HasAccessAt(s.now()), nil
}

// History implements Service.History.
func (s *serviceImpl) History(ctx context.Context, userID uuid.UUID) ([]*domain.Subscription, error) {
	subs, err := s.subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError("subscription_history", "failed to list subscriptions", err)
	}
	return subs, nil
}

// Events implements Service.Events.
func (s *serviceImpl) Events(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SubscriptionEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	evs, err := s.audit.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, service.NewServiceError("subscription_events", "failed to list events", err)
	}
	return evs, nil
}

// Metrics implements Service.Metrics.
func (s *serviceImpl) Metrics(ctx context.Context) (*domain.SubscriptionMetrics, error) {
	m, err := s.subscriptions.Metrics(ctx)
	if err != nil {
		return nil, service.NewServiceError("subscription_metrics", "failed to count subscriptions", err)
	}
	return m, nil
}

// List implements Service.List.
func (s *serviceImpl) List(ctx context.Context, filter store.SubscriptionFilter) ([]*domain.Subscription, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, service.InvalidRequest(domain.ErrInvalidSubscriptionState)
	}
	if filter.Platform != nil && !filter.Platform.Valid() {
		return nil, service.InvalidRequest(domain.ErrInvalidPlatform)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultSubscriptionLimit
	}
	subs, err := s.subscriptions.List(ctx, filter)
	if err != nil {
		return nil, service.NewServiceError("list_subscriptions", "failed to list subscriptions", err)
	}
	return subs, nil
}
