package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-quiz/internal/api/shared"
	"github.com/phrazzld/scry-quiz/internal/platform/logger"
)

// maxInboundTraceID bounds trace IDs accepted from clients.
const maxInboundTraceID = 64

// NewTraceMiddleware assigns every request a trace ID, echoes it in the
// X-Trace-ID response header and attaches it to the request's log records.
// A client supplied X-Trace-ID is kept when it is short enough.
func NewTraceMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inbound := r.Header.Get(shared.TraceIDHeader)
			if len(inbound) > maxInboundTraceID {
				inbound = ""
			}

			ctx := shared.SetTraceID(r.Context(), inbound)
			traceID := shared.GetTraceID(ctx)

			ctx = logger.AppendAttrs(ctx, slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log.With(slog.String("trace_id", traceID)))

			w.Header().Set(shared.TraceIDHeader, traceID)

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
