package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents how urgent a task is. The empty string means the
// user (or the inference engine) has not assigned one.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = ""
)

// Rank maps a priority to a comparable weight. Unset priorities rank
// as medium so they are neither promoted nor demoted first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// Bucket is one of the three schedule partitions a pending task can
// belong to. The empty string means unscheduled/backlog.
type Bucket string

const (
	BucketToday Bucket = "today"
	BucketWeek  Bucket = "week"
	BucketNone  Bucket = ""
)

// DoneOrderSentinel keeps completed tasks out of the active ordering
// space. Done tasks are sorted by DoneAt descending, not by Order.
const DoneOrderSentinel = 1 << 20

// Subtask is a single step inside a task. Subtasks are insertion
// ordered and never reordered.
type Subtask struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is the central entity of the task engine.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	Text         string     `json:"text"`
	Priority     Priority   `json:"priority,omitempty"`
	Minutes      int        `json:"minutes,omitempty"`
	Done         bool       `json:"done"`
	DoneAt       *time.Time `json:"done_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ScheduledFor Bucket     `json:"scheduled_for,omitempty"`
	Subtasks     []Subtask  `json:"subtasks"`
	Order        int        `json:"order"`
}

// CompletedWithin reports whether the task was completed inside the
// trailing window ending at now. Used for the rolling 24h completion
// count, which is deliberately not calendar-day aligned.
func (t *Task) CompletedWithin(window time.Duration, now time.Time) bool {
	return t.Done && t.DoneAt != nil && now.Sub(*t.DoneAt) < window
}
