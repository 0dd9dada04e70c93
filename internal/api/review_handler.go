package api

import (
	"log/slog"
	"net/http"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service/review"
)

// ReviewHandler handles spaced-repetition queue requests.
type ReviewHandler struct {
	reviews review.Service
	logger  *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews review.Service, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger.With(slog.String("component", "review_handler")),
	}
}

// AddCard handles POST /review/cards.
func (h *ReviewHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AddCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.reviews.AddToQueue(r.Context(), userID, req.QuestionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add question to review queue")
		return
	}

	log.Debug("question added to review queue",
		slog.String("user_id", userID.String()),
		slog.String("question_id", req.QuestionID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, card)
}

// SubmitReview handles POST /review/cards/{questionID}/review.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "questionID", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.reviews.SubmitReview(r.Context(), userID, questionID, req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("question_id", questionID.String()),
		slog.String("rating", string(req.Rating)),
		slog.Int("interval_days", result.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// DueCards handles GET /review/due.
func (h *ReviewHandler) DueCards(w http.ResponseWriter, r *http.Request) {
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

	cards, err := h.reviews.DueCards(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load due cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// ListCards handles GET /review/cards with an optional status filter.
func (h *ReviewHandler) ListCards(w http.ResponseWriter, r *http.Request) {
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

	var status *domain.CardStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.CardStatus(raw)
		if !s.Valid() {
			HandleAPIError(w, r, domain.NewValidationError("status", "must be one of new, learning, review, relearning", domain.ErrInvalidCardStatus), "")
			return
		}
		status = &s
	}

	cards, err := h.reviews.ListCards(r.Context(), userID, status, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list review cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// Stats handles GET /review/stats.
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.reviews.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load review statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// RemoveCard handles DELETE /review/cards/{questionID}.
func (h *ReviewHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "questionID", log)
	if !ok {
		return
	}

	if err := h.reviews.RemoveFromQueue(r.Context(), userID, questionID); err != nil {
		HandleAPIError(w, r, err, "Failed to remove card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetCard handles POST /review/cards/{questionID}/reset.
func (h *ReviewHandler) ResetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "questionID", log)
	if !ok {
		return
	}

	card, err := h.reviews.ResetCard(r.Context(), userID, questionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}
