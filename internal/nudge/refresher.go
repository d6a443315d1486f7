package nudge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/todone/todone/internal/models"
)

const (
	// shortDebounce applies while no remote nudges exist yet, so the
	// first batch appears quickly after load.
	shortDebounce = 800 * time.Millisecond
	// longDebounce applies afterwards, so busy editing does not hammer
	// the remote service.
	longDebounce = 8 * time.Second

	fetchTimeout = 15 * time.Second
)

// Fetcher obtains remote nudges for the current task state.
type Fetcher func(ctx context.Context) ([]models.Nudge, error)

// Refresher re-issues the remote nudge call on a debounce schedule.
// Each StateChanged call resets the pending timer, so only the last
// change in a burst triggers a fetch. A fetch already dispatched is
// never cancelled.
type Refresher struct {
	engine *Engine
	fetch  Fetcher
	log    *zap.Logger

	short, long time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithDebounce overrides the short and long debounce windows.
func WithDebounce(short, long time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.short, r.long = short, long
	}
}

func NewRefresher(engine *Engine, fetch Fetcher, logger *zap.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		engine: engine,
		fetch:  fetch,
		log:    logger,
		short:  shortDebounce,
		long:   longDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StateChanged notes a meaningful task-state change (pending count or
// completed-today count moved) and schedules a fetch after the current
// debounce window, cancelling any not-yet-fired schedule.
func (r *Refresher) StateChanged() {
	delay := r.long
	r.engine.mu.Lock()
	if len(r.engine.remote) == 0 {
		delay = r.short
	}
	r.engine.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(delay, r.run)
}

// Stop cancels any scheduled fetch. In-flight fetches complete.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	nudges, err := r.fetch(ctx)
	if err != nil {
		r.log.Warn("nudge_fetch_failed", zap.Error(err))
		return
	}
	r.engine.SetRemote(nudges)
}
