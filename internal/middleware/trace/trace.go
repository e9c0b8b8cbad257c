// Package trace logs request start and completion and records latency.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
)

// RequestID returns the id chi's RequestID middleware assigned.
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// EnsureRequestID stores a uuid request id when none is present yet and
// echoes the id in the X-Request-Id response header.
func EnsureRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimw.GetReqID(r.Context())
		if id == "" {
			id = uuid.NewString()
			r = r.WithContext(context.WithValue(r.Context(), chimw.RequestIDKey, id))
		}
		w.Header().Set(chimw.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// Middleware logs through the request's context logger and observes
// fintrack_http_request_duration_seconds by route pattern.
func Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := applog.FromContext(r.Context())

			clientIP := ""
			if extractIP != nil {
				clientIP = extractIP(r)
			}
			logger.DebugContext(r.Context(), "HTTP request started",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldQuery, r.URL.RawQuery,
				applog.FieldClientIP, clientIP,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			metrics.HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(duration.Seconds())

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			fields := applog.NewFields().
				WithHTTPResponse(r.Method, r.URL.Path, status, duration.Milliseconds())
			fields[applog.FieldClientIP] = clientIP
			logger.Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
		})
	}
}
