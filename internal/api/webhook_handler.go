package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/service/billing"
)

// StripeSignatureHeader carries the signature of Stripe deliveries. Superwall
// deliveries are not signed.
const StripeSignatureHeader = "Stripe-Signature"

const maxWebhookBytes = 1 << 20

// WebhookHandler receives billing provider deliveries.
type WebhookHandler struct {
	billing billing.Service
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(billingService billing.Service, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WebhookHandler")
	}
	return &WebhookHandler{
		billing: billingService,
		logger:  logger.With(slog.String("component", "webhook_handler")),
	}
}

// Receive handles POST /webhooks/{provider}. A replayed event is acknowledged
// with 200 and duplicate=true so the provider stops retrying it.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	provider := domain.WebhookProvider(chi.URLParam(r, "provider"))
	if !provider.Valid() {
		HandleAPIError(w, r, domain.ErrInvalidProvider, "")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.billing.ApplyWebhook(r.Context(), provider, payload, r.Header.Get(StripeSignatureHeader))
	switch {
	case errors.Is(err, service.ErrDuplicateIgnored):
		shared.RespondWithJSON(w, r, http.StatusOK, WebhookResponse{Received: true, Duplicate: true})
		return
	case err != nil:
		HandleAPIError(w, r, err, "Failed to process webhook")
		return
	}

	log.Info("webhook processed",
		slog.String("provider", string(provider)),
		slog.String("event_id", result.EventID),
		slog.String("event_type", result.EventType),
		slog.String("action", string(result.Action)))
	shared.RespondWithJSON(w, r, http.StatusOK, WebhookResponse{
		Received:  true,
		EventType: result.EventType,
		Action:    string(result.Action),
	})
}
