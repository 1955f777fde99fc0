package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/logging"
)

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func requestLogger(r *http.Request) *slog.Logger {
	return logging.FromCtx(r.Context())
}

// withRequestLogging attaches a request-scoped logger and logs one line
// per request once it completes.
func withRequestLogging(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		l := base.With("req_id", reqID, "method", r.Method, "path", r.URL.Path)
		r = r.WithContext(logging.WithCtx(r.Context(), l))

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		attrs := []any{"status", sw.status, "duration_ms", time.Since(start).Milliseconds()}
		switch {
		case sw.status >= 500:
			l.ErrorContext(r.Context(), "request", attrs...)
		case isOpsPath(r.URL.Path):
			l.DebugContext(r.Context(), "request", attrs...)
		default:
			l.InfoContext(r.Context(), "request", attrs...)
		}
	})
}
