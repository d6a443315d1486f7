package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoTrueProvider authenticates against a GoTrue-compatible auth service
// (the scheme Supabase exposes at /auth/v1).
type GoTrueProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// NewGoTrueProvider creates a provider for the given auth base URL.
func NewGoTrueProvider(baseURL, apiKey string, log *zap.Logger) *GoTrueProvider {
	return &GoTrueProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type authError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

// SignIn exchanges email/password credentials for a session.
func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := p.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return p.parseSession(body)
}

// SignUp registers a new account.
func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	body, err := p.post(ctx, "/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	session, err := p.parseSession(body)
	if err == nil {
		return session, nil
	}

	// Confirmation-required setups answer with a bare user object and
	// no tokens: a successful signup with no session yet. Only that
	// shape maps to (nil, nil); a malformed response stays an error.
	var pending struct {
		ID   string `json:"id"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if json.Unmarshal(body, &pending) == nil {
		id := pending.ID
		if id == "" {
			id = pending.User.ID
		}
		if _, idErr := uuid.Parse(id); idErr == nil {
			return nil, nil
		}
	}
	return nil, err
}

// SignOut revokes the session server-side.
func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sign out returned status %d", resp.StatusCode)
	}
	return nil
}

// ResetPassword sends a recovery email.
func (p *GoTrueProvider) ResetPassword(ctx context.Context, email string) error {
	_, err := p.post(ctx, "/recover", map[string]string{"email": email})
	return err
}

func (p *GoTrueProvider) post(ctx context.Context, path string, payload map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var ae authError
		if json.Unmarshal(body, &ae) == nil {
			msg := ae.Message
			if msg == "" {
				msg = ae.ErrorDescription
			}
			if msg != "" {
				return nil, fmt.Errorf("auth failed: %s", msg)
			}
		}
		return nil, fmt.Errorf("auth endpoint returned status %d", resp.StatusCode)
	}
	return body, nil
}

func (p *GoTrueProvider) parseSession(body []byte) (*Session, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse auth response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("auth response contained no access token")
	}

	userID, err := uuid.Parse(tr.User.ID)
	if err != nil {
		return nil, fmt.Errorf("auth response user id is not a UUID: %w", err)
	}

	return &Session{
		UserID:       userID,
		Email:        tr.User.Email,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

var _ Provider = (*GoTrueProvider)(nil)
