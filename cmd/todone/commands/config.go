package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/todone/todone/internal/session"
)

// CLIConfig is the client configuration plus the persisted session,
// stored in ~/.todone.yaml (override with TODONE_CONFIG).
type CLIConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	ServerURL      string `yaml:"server_url"`
	AuthBaseURL    string `yaml:"auth_base_url"`
	AuthAPIKey     string `yaml:"auth_api_key"`
	WorkdayMinutes int    `yaml:"workday_minutes"`

	UserID       string    `yaml:"user_id,omitempty"`
	Email        string    `yaml:"email,omitempty"`
	AccessToken  string    `yaml:"access_token,omitempty"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	ExpiresAt    time.Time `yaml:"expires_at,omitempty"`
}

func configPath() (string, error) {
	if p := os.Getenv("TODONE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".todone.yaml"), nil
}

// loadCLIConfig reads the config file. A missing file yields defaults
// so that sign-in can bootstrap it.
func loadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{
		ServerURL:      "http://localhost:8080",
		WorkdayMinutes: 480,
	}

	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8080"
	}
	if cfg.WorkdayMinutes <= 0 {
		cfg.WorkdayMinutes = 480
	}
	return cfg, nil
}

func (c *CLIConfig) save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// The file carries tokens, keep it user readable only.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setSession persists a session into the config, or clears it when nil.
func (c *CLIConfig) setSession(s *session.Session) {
	if s == nil {
		c.UserID = ""
		c.Email = ""
		c.AccessToken = ""
		c.RefreshToken = ""
		c.ExpiresAt = time.Time{}
		return
	}
	c.UserID = s.UserID.String()
	c.Email = s.Email
	c.AccessToken = s.AccessToken
	c.RefreshToken = s.RefreshToken
	c.ExpiresAt = s.ExpiresAt
}

// currentSession rebuilds the persisted session, or nil when signed out.
func (c *CLIConfig) currentSession() *session.Session {
	if c.AccessToken == "" || c.UserID == "" {
		return nil
	}
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil
	}
	return &session.Session{
		UserID:       uid,
		Email:        c.Email,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

func (c *CLIConfig) userID() (uuid.UUID, error) {
	if c.UserID == "" {
		return uuid.Nil, fmt.Errorf("not signed in: run 'todone login' first")
	}
	uid, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in config: %w", err)
	}
	return uid, nil
}
