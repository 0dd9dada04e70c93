package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// ExpireSweep implements Service.ExpireSweep.
func (s *serviceImpl) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	expired, err := s.expireElapsed(ctx, uuid.Nil, now)
	if err != nil {
		log.Error("expiry sweep failed",
			slog.String("error", err.Error()),
			slog.Int("expired", expired))
		return expired, service.NewServiceError("expire_sweep", "failed to expire subscriptions", err)
	}
	log.Info("expiry sweep finished", slog.Int("expired", expired))
	return expired, nil
}

// ValidateSubscription implements Service.ValidateSubscription.
func (s *serviceImpl) ValidateSubscription(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionInfo, error) {
	if _, err := s.expireElapsed(ctx, userID, s.now()); err != nil {
		return nil, service.NewServiceError("validate_subscription", "failed to expire subscriptions", err)
	}
	return s.Info(ctx, userID)
}

// expireElapsed expires elapsed subscriptions in batches, scoped to userID
// unless it is uuid.Nil. Each subscription is locked and rechecked in its own
// transaction, so a webhook that renewed it in the meantime wins.
func (s *serviceImpl) expireElapsed(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	expired := 0
	for {
		ids, err := s.subscriptions.ListElapsedActive(ctx, userID, now, s.sweepBatch)
		if err != nil {
			return expired, err
		}

		changed := 0
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
			ok, err := s.expireOne(ctx, id, now)
			if err != nil {
				return expired, err
			}
			if ok {
				changed++
			}
		}
		expired += changed

		if len(ids) < s.sweepBatch || changed == 0 {
			return expired, nil
		}
	}
}

func (s *serviceImpl) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	var transitions []transition
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		subs := s.subscriptions.WithTx(tx)

		sub, err := subs.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !sub.Elapsed(now) {
			return nil
		}

		at := now.UTC()
		previous := sub.Status
		sub.Status = domain.SubscriptionExpired
		sub.IsActive = false
		sub.UpdatedAt = at
		if err := subs.Update(ctx, sub); err != nil {
			return err
		}
		return s.record(ctx, s.audit.WithTx(tx), sub, domain.EventExpired, &previous, nil, "", at, &transitions)
	})
	if store.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.publish(ctx, transitions)
	return len(transitions) > 0, nil
}
