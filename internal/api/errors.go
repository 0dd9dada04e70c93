package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/service/auth"
	"github.com/musaabMD/expoiosweb/internal/service/billing"
	"github.com/musaabMD/expoiosweb/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking their types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingSubject),
		errors.Is(err, billing.ErrMissingSignature),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, service.ErrEmptySelection):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrMalformedEvent),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidProvider),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// A replayed webhook is acknowledged, not failed.
	case errors.Is(err, service.ErrDuplicateIgnored):
		return http.StatusOK

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	// Field-level messages are built from constants and safe to return.
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingSubject):
		return "Invalid token"
	case errors.Is(err, billing.ErrMissingSignature):
		return "Missing webhook signature"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, store.ErrReviewCardNotFound):
		return "Question is not in your review queue"
	case errors.Is(err, store.ErrProgressNotFound):
		return "No progress recorded for this question"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, store.ErrSubscriptionNotFound):
		return "Subscription not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, service.ErrAlreadyCompleted):
		return "Session already completed"
	case errors.Is(err, service.ErrEmptySelection):
		return "No questions match the selection criteria"
	case errors.Is(err, service.ErrMalformedEvent):
		return "Malformed webhook payload"
	case errors.Is(err, domain.ErrInvalidProvider):
		return "Unknown webhook provider"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, domain.ErrValidation):
		return validationMessage(err)
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// validationMessage names the rejected input for known domain sentinels.
func validationMessage(err error) string {
	for _, sentinel := range requestSentinels {
		if errors.Is(err, sentinel) {
			return capitalize(sentinel.Error())
		}
	}
	return "Invalid request"
}

// requestSentinels are domain errors whose text describes the caller's input.
var requestSentinels = []error{
	domain.ErrInvalidRating,
	domain.ErrInvalidChoiceIndex,
	domain.ErrInvalidSessionMode,
	domain.ErrInvalidSelectionSource,
	domain.ErrInvalidQuestionCount,
	domain.ErrQuestionNotInSession,
	domain.ErrInvalidCardStatus,
	domain.ErrInvalidProgressStatus,
	domain.ErrInvalidSubscriptionState,
	domain.ErrInvalidPlatform,
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SanitizeValidationError turns a validator error into a short message naming
// the field and the failed rule.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Format: "Key: 'CreateSessionRequest.Mode' Error:Field validation for 'Mode' failed on the 'oneof' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid ID format"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the mapped status for err. fallbackMsg replaces the
// generic message of unmapped errors when given.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		msg = fallbackMsg
	}
	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
