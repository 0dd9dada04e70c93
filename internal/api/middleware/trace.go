package middleware

import (
	"log/slog"
	"net/http"

	"github.com/musaabMD/expoiosweb/internal/api/shared"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and tags the request
// logger with it. Apply it early in the chain, after the otel handler so the
// span's trace ID is reused.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			ctx = logger.WithLogger(ctx, base)
			ctx = logger.WithRequestID(ctx, traceID)

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
