package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier validates the HS256 access tokens the auth service issues
// and extracts the owner identifier from them.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the shared JWT signing secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates a token, returning the user id from the
// sub claim.
func (v *Verifier) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	sub := token.Subject()
	if sub == "" {
		return uuid.Nil, fmt.Errorf("token missing sub claim")
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token sub is not a UUID: %w", err)
	}
	return userID, nil
}
