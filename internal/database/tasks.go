package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/store"
)

// TaskRepository handles task database operations. All queries are
// scoped by the owning user.
type TaskRepository struct {
	db       *DB
	onChange func(userID uuid.UUID)
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// SetChangeHandler registers a callback fired after every successful
// mutation, with the affected user's id. Used to schedule downstream
// work such as nudge refreshes.
func (r *TaskRepository) SetChangeHandler(f func(userID uuid.UUID)) {
	r.onChange = f
}

func (r *TaskRepository) notifyChange(userID uuid.UUID) {
	if r.onChange != nil {
		r.onChange(userID)
	}
}

// ListByUser returns all of a user's tasks ordered by their "order"
// column, which hydrates the local store.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `
		SELECT id, text, priority, minutes, done, done_at, created_at, subtasks, scheduled_for, "order"
		FROM tasks
		WHERE user_id = $1
		ORDER BY "order"
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// Insert stores a new task row.
func (r *TaskRepository) Insert(ctx context.Context, userID uuid.UUID, t models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, text, priority, minutes, done, done_at, created_at, subtasks, scheduled_for, "order")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	subtasksJSON, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("failed to marshal subtasks: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		userID,
		t.Text,
		nullString(string(t.Priority)),
		t.Minutes,
		t.Done,
		nullTime(t.DoneAt),
		t.CreatedAt,
		subtasksJSON,
		nullString(string(t.ScheduledFor)),
		t.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	r.notifyChange(userID)
	return nil
}

// Update applies a partial update, building the SET clause from the
// patch's non-nil fields. An empty patch is a no-op.
func (r *TaskRepository) Update(ctx context.Context, userID, id uuid.UUID, patch store.TaskPatch) error {
	var sets []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Done != nil {
		sets = append(sets, "done = "+arg(*patch.Done))
		sets = append(sets, "done_at = "+arg(nullTime(patch.DoneAt)))
	}
	if patch.ScheduledFor != nil {
		sets = append(sets, "scheduled_for = "+arg(nullString(string(*patch.ScheduledFor))))
	}
	if patch.Subtasks != nil {
		subtasksJSON, err := json.Marshal(patch.Subtasks)
		if err != nil {
			return fmt.Errorf("failed to marshal subtasks: %w", err)
		}
		sets = append(sets, "subtasks = "+arg(subtasksJSON))
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = %s AND user_id = %s",
		strings.Join(sets, ", "), arg(id), arg(userID),
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	r.notifyChange(userID)
	return nil
}

// Delete removes a task row.
func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	r.notifyChange(userID)
	return nil
}

// UpsertMany writes a batch of rows, updating on id conflict. Used by
// reorder and batch-add operations.
func (r *TaskRepository) UpsertMany(ctx context.Context, userID uuid.UUID, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tasks (id, user_id, text, priority, minutes, done, done_at, created_at, subtasks, scheduled_for, "order")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			priority = EXCLUDED.priority,
			minutes = EXCLUDED.minutes,
			done = EXCLUDED.done,
			done_at = EXCLUDED.done_at,
			subtasks = EXCLUDED.subtasks,
			scheduled_for = EXCLUDED.scheduled_for,
			"order" = EXCLUDED."order"
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		subtasksJSON, err := json.Marshal(t.Subtasks)
		if err != nil {
			return fmt.Errorf("failed to marshal subtasks: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			t.ID,
			userID,
			t.Text,
			nullString(string(t.Priority)),
			t.Minutes,
			t.Done,
			nullTime(t.DoneAt),
			t.CreatedAt,
			subtasksJSON,
			nullString(string(t.ScheduledFor)),
			t.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	r.notifyChange(userID)
	return nil
}

// UpdateBucket moves a set of tasks into one bucket in a single
// statement.
func (r *TaskRepository) UpdateBucket(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, bucket models.Bucket) error {
	if len(ids) == 0 {
		return nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	query := `UPDATE tasks SET scheduled_for = $1 WHERE id = ANY($2) AND user_id = $3`
	if _, err := r.db.ExecContext(ctx, query, nullString(string(bucket)), pq.Array(strIDs), userID); err != nil {
		return fmt.Errorf("failed to update bucket: %w", err)
	}
	r.notifyChange(userID)
	return nil
}

// ForUser narrows the repository to one owner, yielding the store's
// remote table.
func (r *TaskRepository) ForUser(userID uuid.UUID) *UserTaskTable {
	return &UserTaskTable{repo: r, userID: userID}
}

// UserTaskTable adapts TaskRepository to a single user's task table.
type UserTaskTable struct {
	repo   *TaskRepository
	userID uuid.UUID
}

var _ store.RemoteTable = (*UserTaskTable)(nil)

func (t *UserTaskTable) List(ctx context.Context) ([]models.Task, error) {
	return t.repo.ListByUser(ctx, t.userID)
}

func (t *UserTaskTable) Insert(ctx context.Context, task models.Task) error {
	return t.repo.Insert(ctx, t.userID, task)
}

func (t *UserTaskTable) Update(ctx context.Context, id uuid.UUID, patch store.TaskPatch) error {
	return t.repo.Update(ctx, t.userID, id, patch)
}

func (t *UserTaskTable) Delete(ctx context.Context, id uuid.UUID) error {
	return t.repo.Delete(ctx, t.userID, id)
}

func (t *UserTaskTable) UpsertMany(ctx context.Context, tasks []models.Task) error {
	return t.repo.UpsertMany(ctx, t.userID, tasks)
}

func (t *UserTaskTable) UpdateBucket(ctx context.Context, ids []uuid.UUID, bucket models.Bucket) error {
	return t.repo.UpdateBucket(ctx, t.userID, ids, bucket)
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var t models.Task
	var priority, scheduledFor sql.NullString
	var doneAt sql.NullTime
	var subtasksJSON []byte

	err := rows.Scan(
		&t.ID,
		&t.Text,
		&priority,
		&t.Minutes,
		&t.Done,
		&doneAt,
		&t.CreatedAt,
		&subtasksJSON,
		&scheduledFor,
		&t.Order,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}

	t.Priority = models.Priority(priority.String)
	t.ScheduledFor = models.Bucket(scheduledFor.String)
	if doneAt.Valid {
		at := doneAt.Time
		t.DoneAt = &at
	}
	t.Subtasks = []models.Subtask{}
	if len(subtasksJSON) > 0 {
		if err := json.Unmarshal(subtasksJSON, &t.Subtasks); err != nil {
			return models.Task{}, fmt.Errorf("failed to unmarshal subtasks: %w", err)
		}
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
