package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags each request with an id (taken from the
// X-Request-ID header when the caller sent one) and logs its outcome.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set(requestIDHeader, requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(wrapped, r)
		elapsed := time.Since(start).Milliseconds()

		// scrapes and event streams would drown everything else
		quiet := r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/api/subscribe/")

		switch {
		case wrapped.statusCode >= 500:
			ErrorContext(ctx, "request failed",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", elapsed)
		case wrapped.statusCode >= 400:
			WarnContext(ctx, "request rejected",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", elapsed)
		case quiet:
			DebugContext(ctx, "request completed",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", elapsed)
		default:
			InfoContext(ctx, "request completed",
				"method", r.Method, "path", r.URL.Path,
				"status", wrapped.statusCode, "durationMs", elapsed)
		}
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
