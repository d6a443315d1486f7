package estimate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/todone/todone/internal/models"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetText_ShortInputClears(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetch := func(context.Context, string) (*models.Estimate, error) {
		calls.Add(1)
		return nil, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(10*time.Millisecond))

	c.SetText("Llamar a cliente urgente")
	c.SetText("ya")

	if got, loading := c.Current(); got != nil || loading {
		t.Errorf("Current = %+v/%v, want cleared state for short input", got, loading)
	}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("short input must cancel the scheduled fetch")
	}
}

func TestSetText_LocalGuessImmediate(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	fetch := func(ctx context.Context, _ string) (*models.Estimate, error) {
		<-block
		return nil, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))
	defer close(block)

	c.SetText("Llamar a cliente urgente hoy")
	got, loading := c.Current()
	if got == nil || got.Priority != models.PriorityHigh || got.Minutes != 15 {
		t.Fatalf("Current = %+v, want immediate local guess", got)
	}
	if got.AI {
		t.Error("local guess flagged as AI")
	}
	if loading {
		t.Error("loading shown although the local guess has content")
	}
}

func TestSetText_LoadingOnlyWhenLocalGuessEmpty(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	fetch := func(ctx context.Context, _ string) (*models.Estimate, error) {
		<-block
		return nil, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))
	defer close(block)

	c.SetText("Cosas varias de casa")
	if _, loading := c.Current(); !loading {
		t.Error("loading = false while awaiting remote for an empty local guess")
	}
}

func TestRemoteReplacesWholesale(t *testing.T) {
	t.Parallel()

	fetch := func(ctx context.Context, text string) (*models.Estimate, error) {
		return &models.Estimate{
			Priority:       models.PriorityLow,
			PriorityReason: "Puede esperar",
			Minutes:        25,
			MinutesReason:  "Estimación del modelo",
		}, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))

	c.SetText("Llamar a cliente urgente hoy")
	waitFor(t, func() bool {
		got, _ := c.Current()
		return got != nil && got.AI
	})

	got, loading := c.Current()
	if loading {
		t.Error("loading still set after remote arrived")
	}
	if got.Priority != models.PriorityLow || got.Minutes != 25 {
		t.Errorf("Current = %+v, want remote values, not a field merge", got)
	}
	if got.ScheduledFor != models.BucketNone {
		t.Errorf("ScheduledFor = %q, want remote's unset value to win over local today", got.ScheduledFor)
	}
	if got.CleanText != "Llamar a cliente urgente hoy" {
		t.Errorf("CleanText = %q, want raw trimmed input from the remote path", got.CleanText)
	}
}

func TestRemoteFailureKeepsLocalGuess(t *testing.T) {
	t.Parallel()

	fetch := func(context.Context, string) (*models.Estimate, error) {
		return nil, errors.New("503")
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))

	c.SetText("Cosas varias de casa")
	waitFor(t, func() bool {
		_, loading := c.Current()
		return !loading
	})

	got, _ := c.Current()
	if got == nil || got.AI {
		t.Errorf("Current = %+v, want the local guess kept on failure", got)
	}
}

func TestEmptyRemoteResponseKeepsLocalGuess(t *testing.T) {
	t.Parallel()

	fetch := func(context.Context, string) (*models.Estimate, error) {
		return &models.Estimate{}, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))

	c.SetText("Llamar a cliente urgente hoy")
	waitFor(t, func() bool {
		_, loading := c.Current()
		return !loading
	})

	got, _ := c.Current()
	if got == nil || got.AI || got.Minutes != 15 {
		t.Errorf("Current = %+v, want local guess kept for an empty remote object", got)
	}
}

func TestNewerInputSupersedesInFlightFetch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, text string) (*models.Estimate, error) {
		if calls.Add(1) == 1 {
			<-release
			return &models.Estimate{Minutes: 999, MinutesReason: "stale"}, nil
		}
		return nil, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(time.Millisecond))

	c.SetText("Primer texto largo")
	waitFor(t, func() bool { return calls.Load() == 1 })

	c.SetText("Llamar a cliente urgente hoy")
	close(release)
	waitFor(t, func() bool { return calls.Load() == 2 })
	time.Sleep(20 * time.Millisecond)

	got, _ := c.Current()
	if got == nil || got.Minutes == 999 {
		t.Errorf("Current = %+v, want stale in-flight response discarded", got)
	}
}

func TestDebounceCollapsesBurst(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetch := func(context.Context, string) (*models.Estimate, error) {
		calls.Add(1)
		return nil, nil
	}
	c := NewClient(fetch, zap.NewNop(), WithDebounce(30*time.Millisecond))

	c.SetText("Preparar informe")
	c.SetText("Preparar informe de")
	c.SetText("Preparar informe de ventas")

	waitFor(t, func() bool { return calls.Load() > 0 })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch fired %d times for one typing burst, want 1", got)
	}
}
