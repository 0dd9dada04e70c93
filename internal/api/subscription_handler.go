package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service/billing"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// SweepRunner runs one expiry sweep on demand. skipped reports that another
// instance held the sweep lock.
type SweepRunner interface {
	RunOnce(ctx context.Context) (expired int, skipped bool, err error)
}

// SubscriptionHandler handles subscription status and admin requests.
type SubscriptionHandler struct {
	billing billing.Service
	sweeper SweepRunner
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(
	billingService billing.Service,
	sweeper SweepRunner,
	logger *slog.Logger,
) *SubscriptionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SubscriptionHandler")
	}
	if sweeper == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sweeper cannot be nil for SubscriptionHandler")
	}
	return &SubscriptionHandler{
		billing: billingService,
		sweeper: sweeper,
		logger:  logger.With(slog.String("component", "subscription_handler")),
	}
}

// Status handles GET /subscription. Elapsed subscriptions are expired before
// the gating view is computed.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	info, err := h.billing.ValidateSubscription(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load subscription")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// Active handles GET /subscription/active, the lightweight premium gate.
func (h *SubscriptionHandler) Active(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	active, err := h.billing.HasActive(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check subscription")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ActiveResponse{Active: active})
}

// History handles GET /subscription/history.
func (h *SubscriptionHandler) History(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	subs, err := h.billing.History(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load subscription history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, subs)
}

// Events handles GET /subscription/events.
func (h *SubscriptionHandler) Events(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	events, err := h.billing.Events(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load subscription events")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, events)
}

// Metrics handles GET /admin/subscriptions/metrics.
func (h *SubscriptionHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.billing.Metrics(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load subscription metrics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, metrics)
}

// List handles GET /admin/subscriptions with optional status, platform and
// limit filters.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filter := store.SubscriptionFilter{Limit: limit}
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status := domain.SubscriptionStatus(raw)
		filter.Status = &status
	}
	if raw := query.Get("platform"); raw != "" {
		platform := domain.Platform(raw)
		filter.Platform = &platform
	}

	subs, err := h.billing.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list subscriptions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, subs)
}

// Sweep handles POST /admin/subscriptions/sweep.
func (h *SubscriptionHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var (
		resp SweepResponse
		err  error
	)
	resp.Expired, resp.Skipped, err = h.sweeper.RunOnce(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to run expiry sweep")
		return
	}

	log.Info("manual expiry sweep finished",
		slog.String("admin", shared.SubjectFromContext(r.Context())),
		slog.Int("expired", resp.Expired),
		slog.Bool("skipped", resp.Skipped))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
