// Package estimate reconciles the local inference engine with the
// slower remote estimate endpoint while the user types task text. The
// local guess shows immediately; the remote result, when it arrives and
// carries anything, replaces it wholesale. Remote failures are silent.
package estimate

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/todone/todone/internal/infer"
	"github.com/todone/todone/internal/models"
)

const (
	// minTextLength is the shortest input worth estimating. At or
	// below it the client clears its state instead.
	minTextLength = 3

	debounceDelay = 600 * time.Millisecond
	fetchTimeout  = 15 * time.Second
)

// Fetcher calls the remote estimate endpoint. A nil estimate with nil
// error means the remote had nothing to say.
type Fetcher func(ctx context.Context, text string) (*models.Estimate, error)

// Client tracks the estimate for one input field. Safe for concurrent
// use.
type Client struct {
	fetch    Fetcher
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     int
	text    string
	current *models.Estimate
	loading bool
}

// Option configures a Client.
type Option func(*Client)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Client) { c.debounce = d }
}

func NewClient(fetch Fetcher, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		fetch:    fetch,
		log:      logger,
		debounce: debounceDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetText feeds the current input. Short input clears the estimate and
// cancels any scheduled fetch. Longer input installs the local guess
// immediately and schedules the remote upgrade after the debounce
// window, superseding any not-yet-fired schedule.
func (c *Client) SetText(text string) {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if len([]rune(trimmed)) <= minTextLength {
		c.text = ""
		c.current = nil
		c.loading = false
		return
	}

	local := infer.Infer(trimmed)
	c.text = trimmed
	c.current = local
	// The loading indicator only shows while the local guess is empty
	// and the remote one might still fill it in.
	c.loading = !local.HasAny()

	seq := c.seq
	c.timer = time.AfterFunc(c.debounce, func() { c.run(seq, trimmed) })
}

// Current returns the estimate to display right now, or nil, plus
// whether a remote upgrade is still pending for an empty local guess.
// The caller uses this as-is at submit time; submission never waits for
// the remote.
func (c *Client) Current() (*models.Estimate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.loading
}

// Reset clears all state, as when the input form closes.
func (c *Client) Reset() {
	c.SetText("")
}

func (c *Client) run(seq int, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	remote, err := c.fetch(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// Superseded while in flight. The newer input owns the state.
		return
	}
	c.loading = false
	if err != nil {
		c.log.Debug("estimate_fetch_failed", zap.Error(err))
		return
	}
	if remote == nil || !remote.HasAny() {
		return
	}
	// Wholesale replacement: the remote does not clean text, so it
	// carries the raw input through.
	remote.CleanText = text
	remote.AI = true
	c.current = remote
}
