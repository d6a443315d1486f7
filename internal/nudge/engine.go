// Package nudge produces the suggestion cards shown above the task
// list. Rule-based nudges derive locally from the bucket summary; a
// remote model can supply richer ones that replace the rule-based set
// while present. Dismissals live for the session only.
package nudge

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/models"
)

// splitTargetTTL is how long a split nudge keeps its target task
// flagged for subtask entry before the flag clears on its own.
const splitTargetTTL = 8 * time.Second

// TaskActions is the slice of the task store the nudge actions need.
type TaskActions interface {
	Unload() *models.Task
	PromoteTop(limit int) []models.Task
}

// Engine tracks dismissals, the current remote nudges and the split
// target. Safe for concurrent use.
type Engine struct {
	actions TaskActions
	log     *zap.Logger

	mu          sync.Mutex
	dismissed   map[string]struct{}
	remote      []models.Nudge
	splitTarget uuid.UUID
	splitSeq    int
	splitTTL    time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSplitTTL overrides how long the split target stays flagged.
func WithSplitTTL(d time.Duration) EngineOption {
	return func(e *Engine) { e.splitTTL = d }
}

func NewEngine(actions TaskActions, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		actions:   actions,
		log:       logger,
		dismissed: map[string]struct{}{},
		splitTTL:  splitTargetTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Visible returns the nudges to display for the given summary: the
// remote set when one has arrived, the rule-based set otherwise, minus
// anything dismissed this session.
func (e *Engine) Visible(s *buckets.Summary) []models.Nudge {
	e.mu.Lock()
	remote := e.remote
	// Copy the dismissed ids; Dismiss keeps writing the map after the
	// lock is released.
	dismissed := make(map[string]struct{}, len(e.dismissed))
	for id := range e.dismissed {
		dismissed[id] = struct{}{}
	}
	e.mu.Unlock()

	source := remote
	if len(source) == 0 {
		source = Rules(s)
	}
	out := make([]models.Nudge, 0, len(source))
	for _, n := range source {
		if _, gone := dismissed[n.ID]; !gone {
			out = append(out, n)
		}
	}
	return out
}

// SetRemote installs remote nudges, which supersede the rule-based set
// until the session ends. An empty list leaves the previous set alone.
func (e *Engine) SetRemote(nudges []models.Nudge) {
	if len(nudges) == 0 {
		return
	}
	for i := range nudges {
		nudges[i].AI = true
	}
	e.mu.Lock()
	e.remote = nudges
	e.mu.Unlock()
	e.log.Debug("remote_nudges_set", zap.Int("count", len(nudges)))
}

// Dismiss hides the nudge for the rest of the session.
func (e *Engine) Dismiss(id string) {
	e.mu.Lock()
	e.dismissed[id] = struct{}{}
	e.mu.Unlock()
}

// SplitTarget returns the task currently flagged for subtask entry,
// or uuid.Nil.
func (e *Engine) SplitTarget() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.splitTarget
}

// Apply performs the nudge's action against the task store, then
// dismisses it. Nudges without an action are only dismissed.
func (e *Engine) Apply(n models.Nudge) {
	if n.Action != nil {
		switch n.Action.Type {
		case models.NudgeActionUnload:
			if moved := e.actions.Unload(); moved != nil {
				e.log.Info("nudge_unload", zap.String("task_id", moved.ID.String()))
			}
		case models.NudgeActionSuggest:
			promoted := e.actions.PromoteTop(3)
			e.log.Info("nudge_suggest", zap.Int("promoted", len(promoted)))
		case models.NudgeActionSplit:
			e.flagSplitTarget(n.Action.TaskID)
		}
	}
	e.Dismiss(n.ID)
}

// flagSplitTarget sets the split target and arms its expiry. A newer
// flag supersedes the pending expiry of an older one.
func (e *Engine) flagSplitTarget(id uuid.UUID) {
	e.mu.Lock()
	e.splitTarget = id
	e.splitSeq++
	seq := e.splitSeq
	ttl := e.splitTTL
	e.mu.Unlock()

	time.AfterFunc(ttl, func() {
		e.mu.Lock()
		if e.splitSeq == seq {
			e.splitTarget = uuid.Nil
		}
		e.mu.Unlock()
	})
}
