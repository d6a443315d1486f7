package nudge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/models"
)

type fakeActions struct {
	unloaded int
	promoted []int
}

func (f *fakeActions) Unload() *models.Task {
	f.unloaded++
	return &models.Task{ID: uuid.New()}
}

func (f *fakeActions) PromoteTop(limit int) []models.Task {
	f.promoted = append(f.promoted, limit)
	return make([]models.Task, limit)
}

func summary() *buckets.Summary {
	return &buckets.Summary{WorkdayMinutes: 480}
}

func ids(nudges []models.Nudge) []string {
	out := make([]string, len(nudges))
	for i, n := range nudges {
		out[i] = n.ID
	}
	return out
}

func TestRules_Order(t *testing.T) {
	t.Parallel()

	big := models.Task{ID: uuid.New(), Text: "armar deck", Minutes: 300, ScheduledFor: models.BucketToday}
	s := summary()
	s.Today = []models.Task{big}
	s.TodayPlannedMinutes = 540
	s.Overloaded = true
	s.PendingCount = 10
	s.CompletedTodayCount = 5
	s.Week = make([]models.Task, 6)
	s.Unscheduled = make([]models.Task, 3)

	got := ids(Rules(s))
	want := []string{"overload", "split-" + big.ID.String(), "done5", "unscheduled"}
	if len(got) != len(want) {
		t.Fatalf("rules = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rules[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRules_Overload(t *testing.T) {
	t.Parallel()

	s := summary()
	// Subtasks keep the split rule quiet so only overload fires.
	s.Today = []models.Task{{Minutes: 540, Subtasks: []models.Subtask{{Text: "parte 1"}}}}
	s.TodayPlannedMinutes = 540
	s.Overloaded = true
	s.PendingCount = 1

	got := Rules(s)
	if len(got) != 1 || got[0].ID != "overload" {
		t.Fatalf("rules = %v, want only overload", ids(got))
	}
	if !strings.Contains(got[0].Text, "1.1d") || !strings.Contains(got[0].Text, "1h de más") {
		t.Errorf("overload text = %q, want planned and excess minutes spelled out", got[0].Text)
	}
	if got[0].Action == nil || got[0].Action.Type != models.NudgeActionUnload {
		t.Errorf("overload action = %+v, want unload", got[0].Action)
	}
}

func TestRules_SplitFirstLargeTaskOnly(t *testing.T) {
	t.Parallel()

	withSubs := models.Task{ID: uuid.New(), Text: "ya dividida", Minutes: 200, Subtasks: []models.Subtask{{Text: "a"}}}
	first := models.Task{ID: uuid.New(), Text: "grande uno", Minutes: 120}
	second := models.Task{ID: uuid.New(), Text: "grande dos", Minutes: 180}
	s := summary()
	s.Today = []models.Task{withSubs, first, second}
	s.TodayPlannedMinutes = 500
	s.Overloaded = true
	s.PendingCount = 3

	var split []models.Nudge
	for _, n := range Rules(s) {
		if strings.HasPrefix(n.ID, "split-") {
			split = append(split, n)
		}
	}
	if len(split) != 1 {
		t.Fatalf("split nudges = %d, want exactly one", len(split))
	}
	if split[0].Action.TaskID != first.ID {
		t.Errorf("split target = %s, want first large task without subtasks %s", split[0].Action.TaskID, first.ID)
	}
}

func TestRules_EmptyTodayWithPending(t *testing.T) {
	t.Parallel()

	s := summary()
	s.PendingCount = 2
	s.Week = make([]models.Task, 2)

	got := Rules(s)
	if len(got) != 1 || got[0].ID != "suggest" {
		t.Fatalf("rules = %v, want only suggest", ids(got))
	}

	s.PendingCount = 0
	s.Week = nil
	if got := Rules(s); len(got) != 0 {
		t.Errorf("rules with nothing pending = %v, want none", ids(got))
	}
}

func TestRules_CompletionTiersExclusive(t *testing.T) {
	t.Parallel()

	s := summary()
	s.CompletedTodayCount = 4

	got := Rules(s)
	if len(got) != 1 || got[0].ID != "done3" {
		t.Fatalf("rules = %v, want only done3 tier", ids(got))
	}
	if !strings.Contains(got[0].Text, "4 completadas") {
		t.Errorf("done3 text = %q, want the count in it", got[0].Text)
	}

	s.CompletedTodayCount = 5
	got = Rules(s)
	if len(got) != 1 || got[0].ID != "done5" {
		t.Errorf("rules = %v, want done5 to win over done3", ids(got))
	}
}

func TestRules_WeekloadSuppressedWhenOverloaded(t *testing.T) {
	t.Parallel()

	s := summary()
	s.Week = make([]models.Task, 6)
	s.PendingCount = 6
	s.Today = []models.Task{{Minutes: 500}}
	s.TodayPlannedMinutes = 500
	s.Overloaded = true

	for _, n := range Rules(s) {
		if n.ID == "weekload" {
			t.Error("weekload shown while today is already overloaded")
		}
	}
}

func TestRules_BalancedDay(t *testing.T) {
	t.Parallel()

	s := summary()
	s.Today = []models.Task{{Minutes: 90}}
	s.TodayPlannedMinutes = 90
	s.PendingCount = 1

	got := Rules(s)
	if len(got) != 1 || got[0].ID != "balanced" {
		t.Fatalf("rules = %v, want only balanced", ids(got))
	}

	s.CompletedTodayCount = 3
	for _, n := range Rules(s) {
		if n.ID == "balanced" {
			t.Error("balanced shown alongside a completion tier")
		}
	}
}

func TestEngine_ConcurrentVisibleAndDismiss(t *testing.T) {
	t.Parallel()

	e := NewEngine(&fakeActions{}, zap.NewNop())
	s := summary()
	s.Today = []models.Task{{Minutes: 30}}
	s.TodayPlannedMinutes = 540
	s.Overloaded = true
	s.PendingCount = 1

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				e.Dismiss(fmt.Sprintf("n%d-%d", i, j))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				e.Visible(s)
			}
		}()
	}
	wg.Wait()

	got := ids(e.Visible(s))
	for _, id := range got {
		if strings.HasPrefix(id, "n") {
			t.Errorf("dismissed id %q still visible", id)
		}
	}
}

func TestEngine_Dismiss(t *testing.T) {
	t.Parallel()

	e := NewEngine(&fakeActions{}, zap.NewNop())
	s := summary()
	s.Today = []models.Task{{Minutes: 90}}
	s.TodayPlannedMinutes = 90
	s.PendingCount = 1

	if got := e.Visible(s); len(got) != 1 {
		t.Fatalf("visible = %v, want one nudge", ids(got))
	}
	e.Dismiss("balanced")
	if got := e.Visible(s); len(got) != 0 {
		t.Errorf("visible after dismiss = %v, want none", ids(got))
	}
}

func TestEngine_RemoteSupersedes(t *testing.T) {
	t.Parallel()

	e := NewEngine(&fakeActions{}, zap.NewNop())
	s := summary()
	s.Today = []models.Task{{Minutes: 90}}
	s.TodayPlannedMinutes = 90
	s.PendingCount = 1

	e.SetRemote(nil) // empty response keeps rule-based source
	if got := e.Visible(s); len(got) != 1 || got[0].ID != "balanced" {
		t.Fatalf("visible = %v, want rule-based nudge", ids(got))
	}

	e.SetRemote([]models.Nudge{{ID: "ai-1", Text: "Arrancá por lo difícil."}})
	got := e.Visible(s)
	if len(got) != 1 || got[0].ID != "ai-1" {
		t.Fatalf("visible = %v, want remote set to replace rules", ids(got))
	}
	if !got[0].AI {
		t.Error("remote nudge not flagged as AI")
	}

	e.Dismiss("ai-1")
	if got := e.Visible(s); len(got) != 0 {
		t.Errorf("visible = %v, want dismissal to apply to remote nudges too", ids(got))
	}
}

func TestEngine_ApplyUnloadAndSuggest(t *testing.T) {
	t.Parallel()

	actions := &fakeActions{}
	e := NewEngine(actions, zap.NewNop())

	e.Apply(models.Nudge{ID: "overload", Action: &models.NudgeAction{Type: models.NudgeActionUnload}})
	e.Apply(models.Nudge{ID: "suggest", Action: &models.NudgeAction{Type: models.NudgeActionSuggest}})

	if actions.unloaded != 1 {
		t.Errorf("unloaded = %d, want 1", actions.unloaded)
	}
	if len(actions.promoted) != 1 || actions.promoted[0] != 3 {
		t.Errorf("promoted = %v, want one call with limit 3", actions.promoted)
	}

	s := summary()
	for _, n := range e.Visible(s) {
		if n.ID == "overload" || n.ID == "suggest" {
			t.Errorf("applied nudge %q still visible", n.ID)
		}
	}
}

func TestEngine_SplitTargetAutoClears(t *testing.T) {
	t.Parallel()

	e := NewEngine(&fakeActions{}, zap.NewNop(), WithSplitTTL(20*time.Millisecond))
	target := uuid.New()
	e.Apply(models.Nudge{
		ID:     "split-" + target.String(),
		Action: &models.NudgeAction{Type: models.NudgeActionSplit, TaskID: target},
	})

	if got := e.SplitTarget(); got != target {
		t.Fatalf("SplitTarget = %s, want %s", got, target)
	}

	deadline := time.Now().Add(time.Second)
	for e.SplitTarget() != uuid.Nil {
		if time.Now().After(deadline) {
			t.Fatal("split target never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefresher_Debounce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetch := func(context.Context) ([]models.Nudge, error) {
		calls.Add(1)
		return []models.Nudge{{ID: "ai-1", Text: "x"}}, nil
	}
	e := NewEngine(&fakeActions{}, zap.NewNop())
	r := NewRefresher(e, fetch, zap.NewNop(), WithDebounce(30*time.Millisecond, time.Minute))
	defer r.Stop()

	// A burst of changes inside the window collapses to one fetch.
	r.StateChanged()
	r.StateChanged()
	r.StateChanged()

	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("fetch never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch fired %d times for one burst, want 1", got)
	}

	// Remote nudges now exist, so the next change uses the long window
	// and Stop cancels it before it fires.
	r.StateChanged()
	r.Stop()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch fired %d times after Stop, want still 1", got)
	}
}

func TestRefresher_FetchFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	fetch := func(context.Context) ([]models.Nudge, error) {
		return nil, errors.New("service unavailable")
	}
	e := NewEngine(&fakeActions{}, zap.NewNop())
	e.SetRemote([]models.Nudge{{ID: "ai-old", Text: "x"}})
	r := NewRefresher(e, fetch, zap.NewNop(), WithDebounce(time.Millisecond, time.Millisecond))
	defer r.Stop()

	r.StateChanged()
	time.Sleep(50 * time.Millisecond)

	got := e.Visible(summary())
	if len(got) != 1 || got[0].ID != "ai-old" {
		t.Errorf("visible = %v, want previous remote nudges kept on failure", ids(got))
	}
}
