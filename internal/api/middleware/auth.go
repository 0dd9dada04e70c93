// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/service/auth"
)

// UserResolver maps a token subject to the internal user, creating the user on
// first sight. store.UserStore satisfies it.
type UserResolver interface {
	EnsureByExternalID(ctx context.Context, externalID, email string) (*domain.User, error)
}

// AuthMiddleware authenticates requests with identity-provider tokens.
type AuthMiddleware struct {
	jwtService auth.JWTService
	users      UserResolver
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, users UserResolver, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
		logger:     logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate validates the bearer token, resolves its subject to a user and
// stores both in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContextOrDefault(r.Context(), m.logger)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken),
				errors.Is(err, auth.ErrMissingSubject):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err,
					shared.WithElevatedLogLevel())
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		user, err := m.users.EnsureByExternalID(r.Context(), claims.Subject, claims.Email)
		if err != nil {
			log.Error("failed to resolve token subject", slog.String("error", err.Error()))
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			return
		}

		ctx := shared.WithUser(r.Context(), user.ID, claims.Subject)
		ctx = logger.WithLogger(ctx, log.With(slog.String("user_id", user.ID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only callers whose token subject is in subjects. It must
// run after Authenticate.
func RequireAdmin(subjects []string) func(http.Handler) http.Handler {
	allowed := slices.Clone(subjects)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := shared.SubjectFromContext(r.Context())
			if subject == "" || !slices.Contains(allowed, subject) {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, "Admin access required",
					domain.ErrUnauthorized, shared.WithElevatedLogLevel())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
