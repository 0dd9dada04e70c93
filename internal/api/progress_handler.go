package api

import (
	"log/slog"
	"net/http"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service/progress"
)

// ProgressHandler handles per-question history requests.
type ProgressHandler struct {
	progress progress.Service
	logger   *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress progress.Service, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressHandler")
	}
	return &ProgressHandler{
		progress: progress,
		logger:   logger.With(slog.String("component", "progress_handler")),
	}
}

// RecordAnswer handles POST /progress/answers.
func (h *ProgressHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req RecordAnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.progress.RecordAnswer(
		r.Context(),
		userID, req.QuestionID,
		*req.SelectedChoiceIndex,
		req.TimeSpentSeconds,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// FlagQuestion handles POST /progress/{questionID}/flag.
func (h *ProgressHandler) FlagQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "questionID", log)
	if !ok {
		return
	}

	var req FlagQuestionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	row, err := h.progress.FlagQuestion(r.Context(), userID, questionID, req.Flagged)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to flag question")
		return
	}
	if row == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, row)
}

// Stats handles GET /progress/stats.
func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.progress.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// List handles GET /progress with an optional status filter.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
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

	var status *domain.ProgressStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.ProgressStatus(raw)
		if !s.Valid() {
			HandleAPIError(w, r, domain.NewValidationError("status", "must be one of correct, incorrect, flagged, skipped", domain.ErrInvalidProgressStatus), "")
			return
		}
		status = &s
	}

	rows, err := h.progress.List(r.Context(), userID, status, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rows)
}

// Reset handles DELETE /progress/{questionID}.
func (h *ProgressHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, questionID, ok := handleUserIDAndPathUUID(w, r, "questionID", log)
	if !ok {
		return
	}

	if err := h.progress.Reset(r.Context(), userID, questionID); err != nil {
		HandleAPIError(w, r, err, "Failed to reset progress")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
