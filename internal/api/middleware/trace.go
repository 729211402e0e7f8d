package middleware

import (
	"log/slog"
	"net/http"

	"github.com/examgen/examgen-api/internal/api/shared"
	"github.com/examgen/examgen-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context, echoes it in the
// X-Trace-ID response header and stores a logger carrying it in the context.
// It should be applied early in the middleware chain so that all subsequent
// handlers see the trace ID.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context(), r.Header.Get(shared.TraceIDHeader))
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(shared.TraceIDHeader, traceID)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
