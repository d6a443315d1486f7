package buckets

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/models"
)

func task(text string, bucket models.Bucket, minutes, order int) models.Task {
	return models.Task{
		ID:           uuid.New(),
		Text:         text,
		Minutes:      minutes,
		ScheduledFor: bucket,
		Order:        order,
		CreatedAt:    time.Now(),
		Subtasks:     []models.Subtask{},
	}
}

func doneTask(text string, bucket models.Bucket, minutes int, doneAt time.Time) models.Task {
	t := task(text, bucket, minutes, models.DoneOrderSentinel)
	t.Done = true
	t.DoneAt = &doneAt
	return t
}

func TestBuild_Partition(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tasks := []models.Task{
		task("b", models.BucketToday, 30, 1),
		task("a", models.BucketToday, 60, 0),
		task("c", models.BucketWeek, 120, 2),
		task("d", models.BucketNone, 15, 3),
		doneTask("e", models.BucketToday, 45, now.Add(-time.Hour)),
		doneTask("f", models.BucketNone, 10, now.Add(-time.Minute)),
	}

	s := Build(tasks, now, 480)

	if len(s.Today) != 2 || s.Today[0].Text != "a" || s.Today[1].Text != "b" {
		t.Errorf("Today = %v, want [a b] sorted by order", names(s.Today))
	}
	if len(s.Week) != 1 || s.Week[0].Text != "c" {
		t.Errorf("Week = %v, want [c]", names(s.Week))
	}
	if len(s.Unscheduled) != 1 || s.Unscheduled[0].Text != "d" {
		t.Errorf("Unscheduled = %v, want [d]", names(s.Unscheduled))
	}
	if len(s.Done) != 2 || s.Done[0].Text != "f" || s.Done[1].Text != "e" {
		t.Errorf("Done = %v, want [f e] sorted by doneAt desc", names(s.Done))
	}
	if s.PendingCount != 4 {
		t.Errorf("PendingCount = %d, want 4", s.PendingCount)
	}
}

func TestBuild_Minutes(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tasks := []models.Task{
		task("a", models.BucketToday, 300, 0),
		task("b", models.BucketToday, 250, 1),
		task("c", models.BucketWeek, 90, 2),
		doneTask("d", models.BucketToday, 60, now.Add(-2*time.Hour)),
	}

	s := Build(tasks, now, 480)

	if s.TodayPlannedMinutes != 550 {
		t.Errorf("TodayPlannedMinutes = %d, want 550", s.TodayPlannedMinutes)
	}
	if s.TodayDoneMinutes != 60 {
		t.Errorf("TodayDoneMinutes = %d, want 60", s.TodayDoneMinutes)
	}
	if s.TodayTotalMinutes != 610 {
		t.Errorf("TodayTotalMinutes = %d, want 610", s.TodayTotalMinutes)
	}
	if s.WeekMinutes != 90 {
		t.Errorf("WeekMinutes = %d, want 90", s.WeekMinutes)
	}
	if !s.Overloaded {
		t.Error("Overloaded = false, want true for 550 planned over 480 capacity")
	}
}

func TestBuild_FixedDenominator(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tasks := []models.Task{
		task("a", models.BucketToday, 100, 0),
		task("b", models.BucketToday, 50, 1),
	}
	before := Build(tasks, now, 480)

	doneAt := now
	tasks[0].Done = true
	tasks[0].DoneAt = &doneAt
	after := Build(tasks, now, 480)

	if before.TodayTotalMinutes != after.TodayTotalMinutes {
		t.Errorf("TodayTotalMinutes changed on completion: %d -> %d",
			before.TodayTotalMinutes, after.TodayTotalMinutes)
	}
	if after.TodayPlannedMinutes != 50 {
		t.Errorf("TodayPlannedMinutes = %d, want 50", after.TodayPlannedMinutes)
	}
}

func TestBuild_CompletedTodayRollingWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tasks := []models.Task{
		doneTask("recent", models.BucketNone, 10, now.Add(-23*time.Hour)),
		doneTask("stale", models.BucketNone, 10, now.Add(-25*time.Hour)),
		doneTask("just now", models.BucketToday, 10, now.Add(-time.Second)),
	}

	s := Build(tasks, now, 480)
	if s.CompletedTodayCount != 2 {
		t.Errorf("CompletedTodayCount = %d, want 2 (25h-old completion outside window)", s.CompletedTodayCount)
	}
}

func TestBuild_DefaultCapacity(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{task("a", models.BucketToday, 481, 0)}
	s := Build(tasks, time.Now(), 0)
	if s.WorkdayMinutes != DefaultWorkdayMinutes {
		t.Errorf("WorkdayMinutes = %d, want %d", s.WorkdayMinutes, DefaultWorkdayMinutes)
	}
	if !s.Overloaded {
		t.Error("Overloaded = false, want true for 481 over default 480")
	}
}

func TestStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	tests := []struct {
		name      string
		doneDays  []int
		wantCount int
	}{
		{"no completions", nil, 0},
		{"today only", []int{0}, 1},
		{"three consecutive ending today", []int{0, -1, -2}, 3},
		{"pending today does not break streak", []int{-1, -2}, 2},
		{"gap breaks streak", []int{0, -2, -3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var tasks []models.Task
			for _, off := range tt.doneDays {
				tasks = append(tasks, doneTask("t", models.BucketNone, 5, day(off)))
			}
			if got := Streak(tasks, now); got != tt.wantCount {
				t.Errorf("Streak = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func names(list []models.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Text
	}
	return out
}
