package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated user session.
type Session struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the session's access token is still usable.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

// Provider is the interface for authentication backends.
type Provider interface {
	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. Depending on backend settings the
	// returned session may be nil until the email is confirmed.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignOut revokes the session's refresh token.
	SignOut(ctx context.Context, accessToken string) error

	// ResetPassword sends a password recovery email.
	ResetPassword(ctx context.Context, email string) error
}

// Manager holds the current session and notifies subscribers when it
// changes. Subscribers get the new session, or nil on sign-out.
type Manager struct {
	mu      sync.RWMutex
	current *Session
	subs    []func(*Session)
}

func NewManager() *Manager {
	return &Manager{}
}

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set replaces the active session and notifies subscribers.
func (m *Manager) Set(s *Session) {
	m.mu.Lock()
	m.current = s
	subs := make([]func(*Session), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Clear drops the active session and notifies subscribers with nil.
func (m *Manager) Clear() {
	m.Set(nil)
}

// Subscribe registers a callback for session changes. The callback is
// invoked immediately with the current session.
func (m *Manager) Subscribe(fn func(*Session)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	current := m.current
	m.mu.Unlock()

	fn(current)
}
