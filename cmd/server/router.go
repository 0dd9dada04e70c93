package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/musaabMD/expoiosweb/internal/api"
	apiMiddleware "github.com/musaabMD/expoiosweb/internal/api/middleware"
)

// serverSpanName names the root span of every traced request.
const serverSpanName = "http.server"

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	sessionHandler := api.NewSessionHandler(app.assessmentService, app.logger)
	progressHandler := api.NewProgressHandler(app.progressService, app.logger)
	subscriptionHandler := api.NewSubscriptionHandler(app.billingService, app.sweeper, app.logger)
	webhookHandler := api.NewWebhookHandler(app.billingService, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore, app.logger)
	webhookLimiter := apiMiddleware.NewRateLimiter(
		app.config.Server.WebhookRatePerSecond,
		app.config.Server.WebhookBurst,
	)

	// Provider callbacks authenticate by signature, not by bearer token.
	r.With(webhookLimiter.Handler).Post("/webhooks/{provider}", webhookHandler.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/review", func(r chi.Router) {
			r.Get("/due", reviewHandler.DueCards)
			r.Get("/stats", reviewHandler.Stats)
			r.Get("/cards", reviewHandler.ListCards)
			r.Post("/cards", reviewHandler.AddCard)
			r.Post("/cards/{questionID}/review", reviewHandler.SubmitReview)
			r.Post("/cards/{questionID}/reset", reviewHandler.ResetCard)
			r.Delete("/cards/{questionID}", reviewHandler.RemoveCard)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/", sessionHandler.ListSessions)
			r.Get("/stats", sessionHandler.Stats)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)
			r.Post("/{sessionID}/answers", sessionHandler.SubmitAnswer)
			r.Post("/{sessionID}/flags", sessionHandler.FlagAnswer)
			r.Post("/{sessionID}/complete", sessionHandler.CompleteSession)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", progressHandler.List)
			r.Get("/stats", progressHandler.Stats)
			r.Post("/answers", progressHandler.RecordAnswer)
			r.Post("/{questionID}/flag", progressHandler.FlagQuestion)
			r.Delete("/{questionID}", progressHandler.Reset)
		})

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", subscriptionHandler.Status)
			r.Get("/active", subscriptionHandler.Active)
			r.Get("/history", subscriptionHandler.History)
			r.Get("/events", subscriptionHandler.Events)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(apiMiddleware.RequireAdmin(app.config.Auth.AdminExternalIDs))
			r.Get("/subscriptions", subscriptionHandler.List)
			r.Get("/subscriptions/metrics", subscriptionHandler.Metrics)
			r.Post("/subscriptions/sweep", subscriptionHandler.Sweep)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return otelhttp.NewHandler(r, serverSpanName,
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
	)
}
