package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

func TestManager_SubscribeAndSet(t *testing.T) {
	t.Parallel()

	m := NewManager()

	var seen []*Session
	m.Subscribe(func(s *Session) {
		seen = append(seen, s)
	})

	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("expected immediate nil notification, got %v", seen)
	}

	s := &Session{UserID: uuid.New(), AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	m.Set(s)
	if m.Current() != s {
		t.Error("Current did not return the set session")
	}

	m.Clear()
	if m.Current() != nil {
		t.Error("Current not nil after Clear")
	}

	if len(seen) != 3 || seen[1] != s || seen[2] != nil {
		t.Errorf("subscriber saw %d notifications, want initial, set, clear", len(seen))
	}
}

func TestSession_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil", nil, false},
		{"no token", &Session{ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"expired", &Session{AccessToken: "tok", ExpiresAt: time.Now().Add(-time.Minute)}, false},
		{"live", &Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.session.Valid(); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	secret := "test-secret-key-for-hs256-tokens"
	userID := uuid.New()

	sign := func(sub string, exp time.Time) string {
		tok, err := jwt.NewBuilder().
			Subject(sub).
			IssuedAt(time.Now()).
			Expiration(exp).
			Build()
		if err != nil {
			t.Fatalf("failed to build token: %v", err)
		}
		signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return string(signed)
	}

	v, err := NewVerifier(secret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		got, err := v.Verify(sign(userID.String(), time.Now().Add(time.Hour)))
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if got != userID {
			t.Errorf("user id = %s, want %s", got, userID)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		if _, err := v.Verify(sign(userID.String(), time.Now().Add(-time.Minute))); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		other, _ := NewVerifier("a-different-secret-entirely")
		if _, err := other.Verify(sign(userID.String(), time.Now().Add(time.Hour))); err == nil {
			t.Error("expected error for token signed with another secret")
		}
	})

	t.Run("non-uuid sub", func(t *testing.T) {
		t.Parallel()
		if _, err := v.Verify(sign("not-a-uuid", time.Now().Add(time.Hour))); err == nil {
			t.Error("expected error for non-UUID sub")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		if _, err := v.Verify("not.a.token"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestGoTrueProvider_SignIn(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("missing apikey header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at",
			"refresh_token": "rt",
			"expires_in": 3600,
			"user": {"id": "` + userID.String() + `", "email": "ana@example.com"}
		}`))
	}))
	defer srv.Close()

	p := NewGoTrueProvider(srv.URL, "test-key", zap.NewNop())
	s, err := p.SignIn(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.UserID != userID || s.Email != "ana@example.com" || s.AccessToken != "at" {
		t.Errorf("session = %+v", s)
	}
	if !s.Valid() {
		t.Error("fresh session reported invalid")
	}
}

func TestGoTrueProvider_SignIn_BadCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_description": "Invalid login credentials"}`))
	}))
	defer srv.Close()

	p := NewGoTrueProvider(srv.URL, "test-key", zap.NewNop())
	if _, err := p.SignIn(context.Background(), "ana@example.com", "wrong"); err == nil {
		t.Error("expected error for rejected credentials")
	}
}

func TestGoTrueProvider_SignUp_ConfirmationPending(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No tokens until the email is confirmed.
		w.Write([]byte(`{"id": "` + uuid.NewString() + `", "email": "ana@example.com"}`))
	}))
	defer srv.Close()

	p := NewGoTrueProvider(srv.URL, "test-key", zap.NewNop())
	s, err := p.SignUp(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil session before confirmation, got %+v", s)
	}
}

func TestGoTrueProvider_SignUp_MalformedResponseIsAnError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>gateway error</html>"},
		{"no user id", `{"email": "ana@example.com"}`},
		{"bad user id", `{"id": "not-a-uuid"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewGoTrueProvider(srv.URL, "test-key", zap.NewNop())
			s, err := p.SignUp(context.Background(), "ana@example.com", "secret")
			if err == nil {
				t.Fatal("expected error for malformed signup response")
			}
			if s != nil {
				t.Errorf("session = %+v, want nil on error", s)
			}
		})
	}
}
