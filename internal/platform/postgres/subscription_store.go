package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// Default page sizes for subscription scans.
const (
	DefaultSweepBatch        = 500
	DefaultSubscriptionLimit = 100
)

// PostgresSubscriptionStore implements the store.SubscriptionStore interface.
type PostgresSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubscriptionStore creates a new PostgreSQL implementation of the SubscriptionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_store")),
	}
}

var _ store.SubscriptionStore = (*PostgresSubscriptionStore)(nil)

type subscriptionRow struct {
	ID                      uuid.UUID  `db:"id"`
	UserID                  uuid.UUID  `db:"user_id"`
	Platform                string     `db:"platform"`
	Status                  string     `db:"status"`
	CurrentPeriodStart      time.Time  `db:"current_period_start"`
	CurrentPeriodEnd        time.Time  `db:"current_period_end"`
	CancelAt                *time.Time `db:"cancel_at"`
	CanceledAt              *time.Time `db:"canceled_at"`
	TrialEnd                *time.Time `db:"trial_end"`
	StripeSubscriptionID    string     `db:"stripe_subscription_id"`
	StripeCustomerID        string     `db:"stripe_customer_id"`
	StripePriceID           string     `db:"stripe_price_id"`
	SuperwallSubscriptionID string     `db:"superwall_subscription_id"`
	SuperwallOfferID        string     `db:"superwall_offer_id"`
	ProductID               string     `db:"product_id"`
	PlanInterval            string     `db:"plan_interval"`
	AutoRenew               bool       `db:"auto_renew"`
	IsActive                bool       `db:"is_active"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

func (r subscriptionRow) toDomain() *domain.Subscription {
	return &domain.Subscription{
		ID:                      r.ID,
		UserID:                  r.UserID,
		Platform:                domain.Platform(r.Platform),
		Status:                  domain.SubscriptionStatus(r.Status),
		CurrentPeriodStart:      r.CurrentPeriodStart,
		CurrentPeriodEnd:        r.CurrentPeriodEnd,
		CancelAt:                r.CancelAt,
		CanceledAt:              r.CanceledAt,
		TrialEnd:                r.TrialEnd,
		StripeSubscriptionID:    r.StripeSubscriptionID,
		StripeCustomerID:        r.StripeCustomerID,
		StripePriceID:           r.StripePriceID,
		SuperwallSubscriptionID: r.SuperwallSubscriptionID,
		SuperwallOfferID:        r.SuperwallOfferID,
		ProductID:               r.ProductID,
		PlanInterval:            domain.PlanInterval(r.PlanInterval),
		AutoRenew:               r.AutoRenew,
		IsActive:                r.IsActive,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}

func subscriptionsFromRows(rows []subscriptionRow) []*domain.Subscription {
	out := make([]*domain.Subscription, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

const subscriptionColumns = `id, user_id, platform, status, current_period_start, current_period_end,
	cancel_at, canceled_at, trial_end,
	COALESCE(stripe_subscription_id, '') AS stripe_subscription_id,
	COALESCE(stripe_customer_id, '') AS stripe_customer_id,
	COALESCE(stripe_price_id, '') AS stripe_price_id,
	COALESCE(superwall_subscription_id, '') AS superwall_subscription_id,
	COALESCE(superwall_offer_id, '') AS superwall_offer_id,
	product_id, plan_interval, auto_renew, is_active, created_at, updated_at`

// Create implements store.SubscriptionStore.Create.
func (s *PostgresSubscriptionStore) Create(ctx context.Context, sub *domain.Subscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sub.Validate(); err != nil {
		log.Warn("invalid subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", sub.UserID.String()))
		return err
	}

	query := `
		INSERT INTO subscriptions (
			id, user_id, platform, status, current_period_start, current_period_end,
			cancel_at, canceled_at, trial_end,
			stripe_subscription_id, stripe_customer_id, stripe_price_id,
			superwall_subscription_id, superwall_offer_id,
			product_id, plan_interval, auto_renew, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		string(sub.Platform),
		string(sub.Status),
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAt,
		sub.CanceledAt,
		sub.TrialEnd,
		nullIfEmpty(sub.StripeSubscriptionID),
		nullIfEmpty(sub.StripeCustomerID),
		nullIfEmpty(sub.StripePriceID),
		nullIfEmpty(sub.SuperwallSubscriptionID),
		nullIfEmpty(sub.SuperwallOfferID),
		sub.ProductID,
		string(sub.PlanInterval),
		sub.AutoRenew,
		sub.IsActive,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", sub.UserID.String()))
		return MapUniqueViolation(err, store.ErrSubscriptionExists)
	}

	log.Info("subscription created",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("platform", string(sub.Platform)),
		slog.String("status", string(sub.Status)))
	return nil
}

// Update implements store.SubscriptionStore.Update.
func (s *PostgresSubscriptionStore) Update(ctx context.Context, sub *domain.Subscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sub.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4,
			cancel_at = $5, canceled_at = $6, trial_end = $7,
			stripe_customer_id = $8, stripe_price_id = $9, superwall_offer_id = $10,
			product_id = $11, plan_interval = $12, auto_renew = $13, is_active = $14,
			updated_at = $15
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		sub.ID,
		string(sub.Status),
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAt,
		sub.CanceledAt,
		sub.TrialEnd,
		nullIfEmpty(sub.StripeCustomerID),
		nullIfEmpty(sub.StripePriceID),
		nullIfEmpty(sub.SuperwallOfferID),
		sub.ProductID,
		string(sub.PlanInterval),
		sub.AutoRenew,
		sub.IsActive,
		sub.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update subscription",
			slog.String("error", err.Error()),
			slog.String("subscription_id", sub.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubscriptionNotFound)
}

// LockByExternalRef implements store.SubscriptionStore.LockByExternalRef.
func (s *PostgresSubscriptionStore) LockByExternalRef(
	ctx context.Context,
	ref domain.ExternalRef,
) (*domain.Subscription, error) {
	var column string
	switch ref.Provider {
	case domain.ProviderStripe:
		column = "stripe_subscription_id"
	case domain.ProviderSuperwall:
		column = "superwall_subscription_id"
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProvider, ref.Provider)
	}
	if ref.ID == "" {
		return nil, store.ErrSubscriptionNotFound
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE ` + column + ` = $1 FOR UPDATE`

	var row subscriptionRow
	if err := s.db.GetContext(ctx, &row, query, ref.ID); err != nil {
		return nil, mapNotFound(err, store.ErrSubscriptionNotFound)
	}
	return row.toDomain(), nil
}

// LockByID implements store.SubscriptionStore.LockByID.
func (s *PostgresSubscriptionStore) LockByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 FOR UPDATE`

	var row subscriptionRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapNotFound(err, store.ErrSubscriptionNotFound)
	}
	return row.toDomain(), nil
}

// GetActiveForUser implements store.SubscriptionStore.GetActiveForUser.
func (s *PostgresSubscriptionStore) GetActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1
		ORDER BY is_active DESC, updated_at DESC
		LIMIT 1`

	var row subscriptionRow
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, mapNotFound(err, store.ErrSubscriptionNotFound)
	}
	return row.toDomain(), nil
}

// ListByUser implements store.SubscriptionStore.ListByUser.
func (s *PostgresSubscriptionStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var rows []subscriptionRow
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, MapError(err)
	}
	return subscriptionsFromRows(rows), nil
}

// ListElapsedActive implements store.SubscriptionStore.ListElapsedActive.
func (s *PostgresSubscriptionStore) ListElapsedActive(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	var userArg *uuid.UUID
	if userID != uuid.Nil {
		userArg = &userID
	}

	query := `
		SELECT id FROM subscriptions
		WHERE is_active AND current_period_end < $1
			AND ($2::uuid IS NULL OR user_id = $2)
		ORDER BY current_period_end ASC
		LIMIT $3`

	var ids []uuid.UUID
	if err := s.db.SelectContext(ctx, &ids, query, now.UTC(), userArg, limitOr(limit, DefaultSweepBatch)); err != nil {
		s.logger.ErrorContext(ctx, "failed to list elapsed subscriptions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return ids, nil
}

// List implements store.SubscriptionStore.List.
func (s *PostgresSubscriptionStore) List(
	ctx context.Context,
	filter store.SubscriptionFilter,
) ([]*domain.Subscription, error) {
	var statusArg, platformArg *string
	if filter.Status != nil {
		v := string(*filter.Status)
		statusArg = &v
	}
	if filter.Platform != nil {
		v := string(*filter.Platform)
		platformArg = &v
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE ($1::text IS NULL OR status = $1)
			AND ($2::text IS NULL OR platform = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	var rows []subscriptionRow
	err := s.db.SelectContext(ctx, &rows, query,
		statusArg, platformArg, limitOr(filter.Limit, DefaultSubscriptionLimit))
	if err != nil {
		return nil, MapError(err)
	}
	return subscriptionsFromRows(rows), nil
}

// Metrics implements store.SubscriptionStore.Metrics.
func (s *PostgresSubscriptionStore) Metrics(ctx context.Context) (*domain.SubscriptionMetrics, error) {
	var rows []struct {
		Platform     string `db:"platform"`
		PlanInterval string `db:"plan_interval"`
		Status       string `db:"status"`
		IsActive     bool   `db:"is_active"`
		Count        int    `db:"count"`
	}
	query := `
		SELECT platform, plan_interval, status, is_active, COUNT(*) AS count
		FROM subscriptions
		GROUP BY platform, plan_interval, status, is_active`

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, MapError(err)
	}

	m := &domain.SubscriptionMetrics{
		ByPlatform: make(map[domain.Platform]int),
		ByInterval: make(map[domain.PlanInterval]int),
	}
	for _, r := range rows {
		m.Total += r.Count
		if r.IsActive {
			m.Active += r.Count
		}
		switch domain.SubscriptionStatus(r.Status) {
		case domain.SubscriptionExpired:
			m.Expired += r.Count
		case domain.SubscriptionCanceled:
			m.Canceled += r.Count
		case domain.SubscriptionTrialing:
			m.Trialing += r.Count
		}
		m.ByPlatform[domain.Platform(r.Platform)] += r.Count
		m.ByInterval[domain.PlanInterval(r.PlanInterval)] += r.Count
	}
	return m, nil
}

// WithTx implements store.SubscriptionStore.WithTx.
func (s *PostgresSubscriptionStore) WithTx(tx *sqlx.Tx) store.SubscriptionStore {
	return &PostgresSubscriptionStore{
		db:     tx,
		logger: s.logger,
	}
}
