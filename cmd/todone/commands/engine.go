package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/database"
	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/store"
)

// engine bundles the loaded task store with its database connection for
// the lifetime of one command.
type engine struct {
	cfg   *CLIConfig
	db    *database.DB
	store *store.Store
}

// openEngine connects to the task table of the signed-in user and
// hydrates the store. Persistence runs inline because the process exits
// as soon as the command returns.
func openEngine(ctx context.Context) (*engine, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url not set in config")
	}
	uid, err := cfg.userID()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := database.NewTaskRepository(db)
	st := store.New(repo.ForUser(uid), zap.NewNop(),
		store.WithWorkdayMinutes(cfg.WorkdayMinutes),
		store.WithDispatch(func(f func()) { f() }),
	)
	if err := st.Load(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	return &engine{cfg: cfg, db: db, store: st}, nil
}

func (e *engine) close() {
	closeQuietly(e.db)
}

func closeQuietly(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// resolveTask matches an id prefix against the loaded tasks. A prefix
// must match exactly one task.
func (e *engine) resolveTask(prefix string) (models.Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return models.Task{}, fmt.Errorf("empty task id")
	}

	var matches []models.Task
	for _, t := range e.store.Tasks() {
		if strings.HasPrefix(t.ID.String(), prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("no task matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("%q matches %d tasks, use a longer prefix", prefix, len(matches))
	}
}

func (e *engine) resolveTasks(prefixes []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(prefixes))
	for _, p := range prefixes {
		t, err := e.resolveTask(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}
