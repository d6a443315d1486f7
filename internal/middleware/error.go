package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/todone/todone/internal/logger"
)

// ErrorHandler recovers panics into a 500 with the shared error
// envelope. Panic details stay in the server log.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic_recovered",
						zap.Any("error", rec),
						zap.String("method", r.Method),
						zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					body := map[string]any{
						"success":   false,
						"error":     "Internal Server Error",
						"message":   "An unexpected error occurred",
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					}
					if err := json.NewEncoder(w).Encode(body); err != nil {
						logger.Error("failed_to_encode_error_response", zap.Error(err))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
