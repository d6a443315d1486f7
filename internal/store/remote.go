package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/models"
)

// RemoteTable is the persistence backend for a single owner's tasks.
// Every mutation the Store makes locally is mirrored here best-effort;
// List is the sole source of truth on load.
type RemoteTable interface {
	List(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, task models.Task) error
	Update(ctx context.Context, id uuid.UUID, patch TaskPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertMany(ctx context.Context, tasks []models.Task) error
	UpdateBucket(ctx context.Context, ids []uuid.UUID, bucket models.Bucket) error
}

// TaskPatch is a partial update. Nil pointer fields are left untouched.
// When Done is set, DoneAt applies with it: a nil DoneAt clears the
// completion timestamp.
type TaskPatch struct {
	Done         *bool
	DoneAt       *time.Time
	ScheduledFor *models.Bucket
	Subtasks     []models.Subtask
}
