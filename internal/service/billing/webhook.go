package billing

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

// ApplyWebhook implements Service.ApplyWebhook.
//
// The receipt is committed unprocessed in its own transaction before any
// subscription row is touched. The state change and the processed flag then
// commit together, so a crash in between leaves a retryable receipt and a
// replayed delivery can never apply twice.
func (s *serviceImpl) ApplyWebhook(
	ctx context.Context,
	provider domain.WebhookProvider,
	payload []byte,
	signature string,
) (*WebhookResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !provider.Valid() {
		return nil, service.InvalidRequest(fmt.Errorf("%w: %q", domain.ErrInvalidProvider, provider))
	}
	if err := s.verifier.Verify(provider, payload, signature); err != nil {
		log.Warn("rejected webhook delivery",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()))
		return nil, service.InvalidRequest(err)
	}

	now := s.now()
	cmd, err := ParseEvent(provider, payload, now)
	if err != nil {
		log.Warn("malformed webhook delivery",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()))
		return nil, err
	}
	log = log.With(
		slog.String("provider", string(provider)),
		slog.String("event_id", cmd.EventID),
		slog.String("event_type", cmd.EventType))

	receipt, err := domain.NewWebhookReceipt(provider, cmd.EventID, cmd.EventType, payload, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrMalformedEvent, err)
	}
	var seen *domain.WebhookReceipt
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		seen, err = s.receipts.WithTx(tx).Record(ctx, receipt)
		return err
	})
	if err != nil {
		log.Error("failed to record webhook receipt", slog.String("error", err.Error()))
		return nil, service.NewServiceError("apply_webhook", "failed to record receipt", err)
	}
	if seen.Processed {
		log.Info("duplicate webhook delivery ignored")
		return nil, duplicate(cmd)
	}

	var transitions []transition
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		receipts := s.receipts.WithTx(tx)

		current, err := receipts.GetForUpdate(ctx, provider, cmd.EventID)
		if err != nil {
			return err
		}
		if current.Processed {
			return duplicate(cmd)
		}

		applied, err := s.apply(ctx, tx, cmd, s.now())
		if err != nil {
			return err
		}
		if err := receipts.MarkProcessed(ctx, provider, cmd.EventID, s.now()); err != nil {
			return err
		}
		transitions = applied
		return nil
	})
	if errors.Is(err, service.ErrDuplicateIgnored) {
		log.Info("duplicate webhook delivery ignored")
		return nil, err
	}
	if err != nil {
		log.Error("failed to apply webhook", slog.String("error", err.Error()))
		if markErr := s.receipts.MarkFailed(ctx, provider, cmd.EventID, err.Error()); markErr != nil {
			log.Error("failed to record webhook failure", slog.String("error", markErr.Error()))
		}
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("apply_webhook", "failed to apply event", err)
	}

	s.publish(ctx, transitions)
	log.Info("webhook applied",
		slog.String("action", string(cmd.Action)),
		slog.Int("transitions", len(transitions)))

	return &WebhookResult{
		Provider:  provider,
		EventID:   cmd.EventID,
		EventType: cmd.EventType,
		Action:    cmd.Action,
	}, nil
}

func duplicate(cmd *Command) error {
	return fmt.Errorf("%w: %s event %s", service.ErrDuplicateIgnored, cmd.Provider, cmd.EventID)
}

// apply runs the state machine transition named by cmd inside tx.
func (s *serviceImpl) apply(ctx context.Context, tx *sqlx.Tx, cmd *Command, now time.Time) ([]transition, error) {
	var out []transition
	var err error
	switch cmd.Action {
	case ActionUpsert:
		err = s.upsert(ctx, tx, cmd, now, &out)
	case ActionCancel:
		err = s.cancel(ctx, tx, cmd, now, &out)
	case ActionPaymentFailed:
		err = s.paymentFailed(ctx, tx, cmd, now, &out)
	case ActionIgnore:
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}
	return out, err
}

// upsert patches the lineage named by the command in place, or starts a new
// one. is_active is recomputed from status and period end.
func (s *serviceImpl) upsert(ctx context.Context, tx *sqlx.Tx, cmd *Command, now time.Time, out *[]transition) error {
	up := cmd.Upsert
	subs := s.subscriptions.WithTx(tx)

	user, err := s.users.WithTx(tx).GetByExternalID(ctx, up.UserExternalID)
	if err != nil {
		return err
	}

	existing, err := subs.LockByExternalRef(ctx, up.Ref())
	if err != nil && !errors.Is(err, store.ErrSubscriptionNotFound) {
		return err
	}

	now = now.UTC()
	if existing == nil {
		sub := &domain.Subscription{
			ID:        uuid.New(),
			UserID:    user.ID,
			Platform:  up.Platform,
			CreatedAt: now,
		}
		applyUpsert(sub, up, now)
		if err := subs.Create(ctx, sub); err != nil {
			return err
		}
		return s.record(ctx, s.audit.WithTx(tx), sub, domain.EventCreated, nil, cmd.Metadata, cmd.EventID, now, out)
	}

	previous := existing.Status
	applyUpsert(existing, up, now)
	if err := subs.Update(ctx, existing); err != nil {
		return err
	}
	return s.record(ctx, s.audit.WithTx(tx), existing, domain.EventUpdated, &previous, cmd.Metadata, cmd.EventID, now, out)
}

func applyUpsert(sub *domain.Subscription, up *UpsertCommand, now time.Time) {
	sub.Status = up.Status
	sub.CurrentPeriodStart = up.CurrentPeriodStart
	sub.CurrentPeriodEnd = up.CurrentPeriodEnd
	sub.CancelAt = up.CancelAt
	sub.CanceledAt = up.CanceledAt
	sub.TrialEnd = up.TrialEnd
	sub.StripeSubscriptionID = up.StripeSubscriptionID
	sub.StripeCustomerID = up.StripeCustomerID
	sub.StripePriceID = up.StripePriceID
	sub.SuperwallSubscriptionID = up.SuperwallSubscriptionID
	sub.SuperwallOfferID = up.SuperwallOfferID
	sub.ProductID = up.ProductID
	sub.PlanInterval = up.PlanInterval
	sub.AutoRenew = up.AutoRenew
	sub.IsActive = domain.IsActiveAt(up.Status, up.CurrentPeriodEnd, now)
	sub.UpdatedAt = now
}

// cancel ends the lineage now, or schedules the end and leaves access alone.
func (s *serviceImpl) cancel(ctx context.Context, tx *sqlx.Tx, cmd *Command, now time.Time, out *[]transition) error {
	subs := s.subscriptions.WithTx(tx)

	sub, err := subs.LockByExternalRef(ctx, cmd.Ref)
	if err != nil {
		return err
	}

	now = now.UTC()
	previous := sub.Status
	if cmd.CancelImmediately {
		sub.Status = domain.SubscriptionCanceled
		sub.IsActive = false
	}
	sub.CancelAt = cmd.CancelAt
	sub.CanceledAt = &now
	sub.AutoRenew = false
	sub.UpdatedAt = now

	if err := subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.record(ctx, s.audit.WithTx(tx), sub, domain.EventCanceled, &previous, cmd.Metadata, cmd.EventID, now, out)
}

// paymentFailed moves the lineage to past_due. Access is kept until the
// period ends.
func (s *serviceImpl) paymentFailed(
	ctx context.Context,
	tx *sqlx.Tx,
	cmd *Command,
	now time.Time,
	out *[]transition,
) error {
	subs := s.subscriptions.WithTx(tx)

	sub, err := subs.LockByExternalRef(ctx, cmd.Ref)
	if err != nil {
		return err
	}

	now = now.UTC()
	previous := sub.Status
	sub.Status = domain.SubscriptionPastDue
	sub.UpdatedAt = now

	if err := subs.Update(ctx, sub); err != nil {
		return err
	}
	return s.record(ctx, s.audit.WithTx(tx), sub, domain.EventPaymentFailed, &previous, cmd.Metadata, cmd.EventID, now, out)
}
