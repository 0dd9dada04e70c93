package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service/assessment"
)

// SessionHandler handles assessment session requests.
type SessionHandler struct {
	sessions assessment.Service
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions assessment.Service, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// CreateSession handles POST /sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), userID, req.toServiceRequest())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create session")
		return
	}

	log.Info("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("mode", string(session.Mode)),
		slog.Int("question_count", len(session.QuestionIDs)))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(session, nil))
}

// GetSession handles GET /sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	found, err := h.sessions.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(found.Session, found.Questions))
}

// ListSessions handles GET /sessions with optional exam_id, completed and limit
// query parameters.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
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
	examID, err := queryUUID(r, "exam_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var completedOnly bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		completedOnly, err = strconv.ParseBool(raw)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError("completed", "must be a boolean", domain.ErrValidation), "")
			return
		}
	}

	sessions, err := h.sessions.ListSessions(r.Context(), userID, examID, completedOnly, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionsToResponse(sessions))
}

// Stats handles GET /sessions/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.sessions.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// SubmitAnswer handles POST /sessions/{sessionID}/answers.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.sessions.SubmitAnswer(
		r.Context(),
		userID, sessionID, req.QuestionID,
		*req.SelectedChoiceIndex,
		req.TimeSpentSeconds,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// FlagAnswer handles POST /sessions/{sessionID}/flags.
func (h *SessionHandler) FlagAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	var req FlagAnswerRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	if err := h.sessions.FlagAnswer(r.Context(), userID, sessionID, req.QuestionID, req.Flagged); err != nil {
		HandleAPIError(w, r, err, "Failed to flag question")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteSession handles POST /sessions/{sessionID}/complete.
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	result, err := h.sessions.CompleteSession(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete session")
		return
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Float64("score_percentage", result.ScorePercentage))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), userID, sessionID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
