package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single request. The AI endpoints can
// stall on a slow model call, so every handler runs under a deadline.
const DefaultRequestTimeout = 30 * time.Second

// Timeout cancels the request context after d and writes a 503 if the
// handler has not responded by then.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		withDeadline := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return http.TimeoutHandler(withDeadline, d, "Request Timeout")
	}
}
