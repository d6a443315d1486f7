// Package store holds the in-memory task list and keeps it in sync
// with a RemoteTable. Mutations are optimistic: the local list changes
// immediately and the remote write happens in the background. A failed
// remote write is logged and never rolled back; the remote copy wins
// again on the next Load.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/infer"
	"github.com/todone/todone/internal/models"
)

const syncTimeout = 10 * time.Second

const (
	defaultMinutes  = 30
	defaultPriority = models.PriorityMedium
)

// Store is safe for concurrent use. All mutations are atomic: callers
// never observe a partially renumbered list.
type Store struct {
	mu       sync.Mutex
	tasks    []models.Task
	remote   RemoteTable
	log      *zap.Logger
	workday  int
	now      func() time.Time
	dispatch func(func())
}

// Option configures a Store.
type Option func(*Store)

// WithWorkdayMinutes sets the daily capacity used for the default
// bucket of new tasks.
func WithWorkdayMinutes(min int) Option {
	return func(s *Store) {
		if min > 0 {
			s.workday = min
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDispatch overrides how remote writes are scheduled. The default
// runs them on their own goroutine; tests pass a synchronous dispatcher.
func WithDispatch(d func(func())) Option {
	return func(s *Store) { s.dispatch = d }
}

// New creates an empty Store backed by remote. Call Load to hydrate.
func New(remote RemoteTable, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		remote:   remote,
		log:      logger,
		workday:  buckets.DefaultWorkdayMinutes,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the local list with the remote rows. No merging with
// prior local state.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.remote.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.log.Debug("tasks_loaded", zap.Int("count", len(tasks)))
	return nil
}

// Tasks returns a snapshot of the current list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id uuid.UUID) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findLocked(id); t != nil {
		return *t, true
	}
	return models.Task{}, false
}

// Summary builds the bucket view of the current list.
func (s *Store) Summary() *buckets.Summary {
	return buckets.Build(s.Tasks(), s.now(), s.workday)
}

// Add inserts a task at the front of the pending ordering and renumbers
// pending tasks densely. Blank text is a silent no-op. An unset bucket
// defaults to today while today still has capacity, week otherwise.
// Unset priority and minutes take the standard defaults.
func (s *Store) Add(text string, priority models.Priority, minutes int, bucket models.Bucket, subtasks []models.Subtask) *models.Task {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if priority == models.PriorityNone {
		priority = defaultPriority
	}
	if minutes <= 0 {
		minutes = defaultMinutes
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}

	s.mu.Lock()
	if bucket == models.BucketNone {
		bucket = s.defaultBucketLocked()
	}
	t := models.Task{
		ID:           uuid.New(),
		Text:         text,
		Priority:     priority,
		Minutes:      minutes,
		CreatedAt:    s.now(),
		ScheduledFor: bucket,
		Subtasks:     subtasks,
		Order:        -1,
	}
	// The remote row keeps order -1 so it hydrates ahead of the old
	// front even though the peers' renumbered orders are not persisted.
	remoteCopy := t
	s.insertFrontLocked([]models.Task{t})
	added := s.findLocked(t.ID)
	out := *added
	s.mu.Unlock()

	s.sync("insert", func(ctx context.Context) error {
		return s.remote.Insert(ctx, remoteCopy)
	})
	return &out
}

// AddBatch runs the inference engine over each line, inserts the
// resulting tasks at the front preserving input order, and renumbers
// once. Blank lines are skipped. Returns the tasks as inserted.
func (s *Store) AddBatch(lines []string) []models.Task {
	var batch []models.Task
	s.mu.Lock()
	bucket := s.defaultBucketLocked()
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		est := infer.Infer(line)
		t := models.Task{
			ID:        uuid.New(),
			Text:      est.CleanText,
			Priority:  est.Priority,
			Minutes:   est.Minutes,
			CreatedAt: s.now(),
			Subtasks:  []models.Subtask{},
			Order:     len(batch),
		}
		if t.Priority == models.PriorityNone {
			t.Priority = defaultPriority
		}
		if t.Minutes <= 0 {
			t.Minutes = defaultMinutes
		}
		t.ScheduledFor = est.ScheduledFor
		if t.ScheduledFor == models.BucketNone {
			t.ScheduledFor = bucket
		}
		batch = append(batch, t)
	}
	if len(batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	remoteCopy := make([]models.Task, len(batch))
	copy(remoteCopy, batch)
	s.insertFrontLocked(batch)
	out := make([]models.Task, 0, len(batch))
	for _, t := range batch {
		out = append(out, *s.findLocked(t.ID))
	}
	s.mu.Unlock()

	s.sync("upsert", func(ctx context.Context) error {
		return s.remote.UpsertMany(ctx, remoteCopy)
	})
	return out
}

// Toggle flips done and sets or clears doneAt. Order is untouched.
// Unknown ids are a no-op.
func (s *Store) Toggle(id uuid.UUID) *models.Task {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	t.Done = !t.Done
	if t.Done {
		at := s.now()
		t.DoneAt = &at
	} else {
		t.DoneAt = nil
	}
	out := *t
	s.mu.Unlock()

	patch := TaskPatch{Done: &out.Done, DoneAt: out.DoneAt}
	s.sync("update", func(ctx context.Context) error {
		return s.remote.Update(ctx, id, patch)
	})
	return &out
}

// Delete removes the task. Remaining orders are not renumbered; gaps
// are tolerated until the next insertion or reorder.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.mu.Unlock()

	s.sync("delete", func(ctx context.Context) error {
		return s.remote.Delete(ctx, id)
	})
	return true
}

// UpdateSubtasks replaces the subtask list wholesale.
func (s *Store) UpdateSubtasks(id uuid.UUID, subs []models.Subtask) *models.Task {
	if subs == nil {
		subs = []models.Subtask{}
	}
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	t.Subtasks = subs
	out := *t
	s.mu.Unlock()

	s.sync("update", func(ctx context.Context) error {
		return s.remote.Update(ctx, id, TaskPatch{Subtasks: subs})
	})
	return &out
}

// AddSubtask appends one pending subtask.
func (s *Store) AddSubtask(id uuid.UUID, text string) *models.Task {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	t.Subtasks = append(t.Subtasks, models.Subtask{Text: text})
	subs := make([]models.Subtask, len(t.Subtasks))
	copy(subs, t.Subtasks)
	out := *t
	s.mu.Unlock()

	s.sync("update", func(ctx context.Context) error {
		return s.remote.Update(ctx, id, TaskPatch{Subtasks: subs})
	})
	return &out
}

// Schedule assigns the task to a bucket. BucketNone unschedules it.
func (s *Store) Schedule(id uuid.UUID, bucket models.Bucket) *models.Task {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	t.ScheduledFor = bucket
	out := *t
	s.mu.Unlock()

	b := bucket
	s.sync("update", func(ctx context.Context) error {
		return s.remote.Update(ctx, id, TaskPatch{ScheduledFor: &b})
	})
	return &out
}

// ScheduleMany assigns every listed task to the bucket in one batch.
// Unknown ids are skipped. Returns the tasks that changed.
func (s *Store) ScheduleMany(ids []uuid.UUID, bucket models.Bucket) []models.Task {
	s.mu.Lock()
	out := make([]models.Task, 0, len(ids))
	changed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		t := s.findLocked(id)
		if t == nil {
			continue
		}
		t.ScheduledFor = bucket
		out = append(out, *t)
		changed = append(changed, id)
	}
	s.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}
	s.sync("update_bucket", func(ctx context.Context) error {
		return s.remote.UpdateBucket(ctx, changed, bucket)
	})
	return out
}

// Defer pushes the task to the week bucket.
func (s *Store) Defer(id uuid.UUID) *models.Task {
	return s.Schedule(id, models.BucketWeek)
}

// Move shifts the task one position up (dir = -1) or down (dir = +1)
// within the pending set and renumbers it densely. Boundary moves and
// done tasks are silent no-ops.
func (s *Store) Move(id uuid.UUID, dir int) {
	s.mu.Lock()
	pending := s.pendingSortedLocked()
	idx := -1
	for i := range pending {
		if pending[i].ID == id {
			idx = i
			break
		}
	}
	ni := idx + dir
	if idx == -1 || ni < 0 || ni >= len(pending) {
		s.mu.Unlock()
		return
	}
	item := pending[idx]
	pending = append(pending[:idx], pending[idx+1:]...)
	pending = append(pending[:ni], append([]models.Task{item}, pending[ni:]...)...)
	s.replacePendingLocked(pending)
	remoteCopy := make([]models.Task, len(pending))
	copy(remoteCopy, pending)
	s.mu.Unlock()

	s.sync("upsert", func(ctx context.Context) error {
		return s.remote.UpsertMany(ctx, remoteCopy)
	})
}

// DropOnto moves the dragged task immediately before the target, in the
// target's bucket, and renumbers the pending set. Dropping onto self or
// dragging a done task is a no-op.
func (s *Store) DropOnto(draggedID, targetID uuid.UUID) {
	if draggedID == targetID {
		return
	}
	s.mu.Lock()
	dragged := s.findLocked(draggedID)
	target := s.findLocked(targetID)
	if dragged == nil || target == nil || dragged.Done {
		s.mu.Unlock()
		return
	}
	moved := *dragged
	moved.ScheduledFor = target.ScheduledFor

	pending := s.pendingSortedLocked()
	rest := pending[:0]
	for _, t := range pending {
		if t.ID != draggedID {
			rest = append(rest, t)
		}
	}
	ti := len(rest)
	for i := range rest {
		if rest[i].ID == targetID {
			ti = i
			break
		}
	}
	rest = append(rest[:ti], append([]models.Task{moved}, rest[ti:]...)...)
	s.replacePendingLocked(rest)
	remoteCopy := make([]models.Task, len(rest))
	copy(remoteCopy, rest)
	s.mu.Unlock()

	s.sync("upsert", func(ctx context.Context) error {
		return s.remote.UpsertMany(ctx, remoteCopy)
	})
}

// Unload sends the least urgent today-task to the week bucket. Returns
// the moved task, or nil when today is empty.
func (s *Store) Unload() *models.Task {
	s.mu.Lock()
	var least *models.Task
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.Done || t.ScheduledFor != models.BucketToday {
			continue
		}
		if least == nil || t.Priority.Rank() < least.Priority.Rank() {
			least = t
		}
	}
	if least == nil {
		s.mu.Unlock()
		return nil
	}
	least.ScheduledFor = models.BucketWeek
	out := *least
	s.mu.Unlock()

	week := models.BucketWeek
	s.sync("update", func(ctx context.Context) error {
		return s.remote.Update(ctx, out.ID, TaskPatch{ScheduledFor: &week})
	})
	return &out
}

// PromoteTop moves up to limit highest-priority pending tasks from the
// week and unscheduled buckets into today. Returns the promoted tasks.
func (s *Store) PromoteTop(limit int) []models.Task {
	s.mu.Lock()
	var candidates []*models.Task
	for i := range s.tasks {
		t := &s.tasks[i]
		if !t.Done && t.ScheduledFor != models.BucketToday {
			candidates = append(candidates, t)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority.Rank() > candidates[j].Priority.Rank()
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		s.mu.Unlock()
		return nil
	}
	out := make([]models.Task, 0, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, t := range candidates {
		t.ScheduledFor = models.BucketToday
		out = append(out, *t)
		ids = append(ids, t.ID)
	}
	s.mu.Unlock()

	s.sync("update_bucket", func(ctx context.Context) error {
		return s.remote.UpdateBucket(ctx, ids, models.BucketToday)
	})
	return out
}

// defaultBucketLocked is today while planned today minutes stay under
// capacity, week after that.
func (s *Store) defaultBucketLocked() models.Bucket {
	planned := 0
	for i := range s.tasks {
		if !s.tasks[i].Done && s.tasks[i].ScheduledFor == models.BucketToday {
			planned += s.tasks[i].Minutes
		}
	}
	if planned < s.workday {
		return models.BucketToday
	}
	return models.BucketWeek
}

// insertFrontLocked puts batch ahead of the existing pending tasks and
// renumbers the whole pending set 0..N-1. Done tasks keep their place.
func (s *Store) insertFrontLocked(batch []models.Task) {
	pending := append(batch, s.pendingSortedLocked()...)
	done := s.doneLocked()
	for i := range pending {
		pending[i].Order = i
	}
	s.tasks = append(pending, done...)
}

// replacePendingLocked installs the given pending order, renumbered
// densely, keeping done tasks as they are.
func (s *Store) replacePendingLocked(pending []models.Task) {
	done := s.doneLocked()
	out := make([]models.Task, 0, len(pending)+len(done))
	for i, t := range pending {
		t.Order = i
		out = append(out, t)
	}
	s.tasks = append(out, done...)
}

func (s *Store) pendingSortedLocked() []models.Task {
	var pending []models.Task
	for _, t := range s.tasks {
		if !t.Done {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Order < pending[j].Order })
	return pending
}

func (s *Store) doneLocked() []models.Task {
	var done []models.Task
	for _, t := range s.tasks {
		if t.Done {
			done = append(done, t)
		}
	}
	return done
}

func (s *Store) findLocked(id uuid.UUID) *models.Task {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i]
		}
	}
	return nil
}

// sync schedules a best-effort remote write. Failures are logged and
// never affect local state.
func (s *Store) sync(op string, f func(context.Context) error) {
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if err := f(ctx); err != nil {
			s.log.Warn("remote_sync_failed", zap.String("op", op), zap.Error(err))
		}
	})
}
