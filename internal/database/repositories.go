package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/models"
)

// TaskRepositoryInterface defines the task repository operations the
// worker and handlers depend on.
type TaskRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
}

// Ensure concrete types implement the interfaces
var _ TaskRepositoryInterface = (*TaskRepository)(nil)
