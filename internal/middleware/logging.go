package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Authentication outcomes recorded on the access log line.
const (
	authAnonymous = "anonymous"
	authRejected  = "rejected"
	authBearer    = "bearer"
)

// accessLog collects what inner middleware learn about a request. Logger
// owns it and writes it out once the handler chain returns.
type accessLog struct {
	auth   string
	userID string
}

func noteAuth(ctx context.Context, outcome, userID string) {
	if entry, ok := ctx.Value(accessLogKey).(*accessLog); ok {
		entry.auth = outcome
		entry.userID = userID
	}
}

// Logger returns a middleware that writes one access log line per request.
// Headers are never logged, so bearer tokens stay out of the logs.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessLog{auth: authAnonymous}
			r = r.WithContext(context.WithValue(r.Context(), accessLogKey, entry))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("auth", entry.auth),
			}
			if entry.userID != "" {
				attrs = append(attrs, slog.String("user_id", entry.userID))
			}

			logger.LogAttrs(r.Context(), levelForStatus(status), "http request", attrs...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
