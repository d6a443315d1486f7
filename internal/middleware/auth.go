package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/session"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user id from the request
// context. Returns uuid.Nil when the request is unauthenticated.
func UserFromContext(r *http.Request) uuid.UUID {
	userID, ok := r.Context().Value(userContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// Auth creates authentication middleware that validates the bearer
// token and puts the owner id on the request context.
func Auth(verifier *session.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			userID, err := verifier.Verify(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser puts a user id on the request context directly. Test helper.
func WithUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, userID))
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
