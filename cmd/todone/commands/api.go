package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/services/ai"
	"github.com/todone/todone/internal/session"
)

// apiClient talks to the AI endpoints of the To Done server with the
// persisted session token.
type apiClient struct {
	baseURL string
	sess    *session.Session
	client  *http.Client
}

func newAPIClient(cfg *CLIConfig) (*apiClient, error) {
	sess := cfg.currentSession()
	if !sess.Valid() {
		return nil, fmt.Errorf("session expired: run 'todone login' again")
	}
	return &apiClient{
		baseURL: cfg.ServerURL,
		sess:    sess,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Estimate asks the server for a remote estimate. The server answers
// 200 with an empty object when it has nothing to say; that comes back
// as a nil estimate.
func (a *apiClient) Estimate(ctx context.Context, text string) (*models.Estimate, error) {
	var est models.Estimate
	if err := a.post(ctx, "/api/estimate", map[string]string{"text": text}, &est); err != nil {
		return nil, err
	}
	if !est.HasAny() {
		return nil, nil
	}
	return &est, nil
}

// Suggest asks the server for remote nudges.
func (a *apiClient) Suggest(ctx context.Context, req ai.SuggestRequest) ([]models.Nudge, error) {
	var resp struct {
		Suggestions []models.Nudge `json:"suggestions"`
	}
	if err := a.post(ctx, "/api/suggest", req, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (a *apiClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.sess.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
