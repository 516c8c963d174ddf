// Package data provides persistence implementations for the landscout task engine.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// ErrDuplicateTask is returned when inserting a task whose ID already exists.
var ErrDuplicateTask = errors.New("task id already exists")

// StoreConfig holds configuration options for task stores.
type StoreConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// PGTaskStore provides PostgreSQL-backed task persistence.
type PGTaskStore struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewPGTaskStore creates a new PGTaskStore with the given database connection
// and configuration.
func NewPGTaskStore(db *sql.DB, cfg StoreConfig) *PGTaskStore {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &PGTaskStore{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const taskColumns = `
  id,
  type,
  status,
  owner,
  progress,
  status_message,
  params,
  result,
  error,
  created_at,
  started_at,
  completed_at`

const pgTaskSchema = `
CREATE TABLE IF NOT EXISTS tasks (
  id             TEXT PRIMARY KEY,
  type           TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'pending',
  owner          TEXT NOT NULL,
  progress       INTEGER NOT NULL DEFAULT 0,
  status_message TEXT NOT NULL DEFAULT '',
  params         JSONB NOT NULL,
  result         JSONB,
  error          TEXT,
  created_at     TIMESTAMPTZ NOT NULL,
  started_at     TIMESTAMPTZ,
  completed_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks (owner, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at);`

// EnsureSchema creates the tasks table and indexes if they don't exist.
// It is safe to call multiple times.
func (s *PGTaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, pgTaskSchema); err != nil {
		return fmt.Errorf("ensure task schema: %w", err)
	}
	return nil
}

// Create inserts a new task in pending status.
func (s *PGTaskStore) Create(ctx context.Context, task *model.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO tasks (id, type, status, owner, progress, status_message, params, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.Type, task.Status, task.Owner,
		task.Progress, task.StatusMessage, []byte(task.Params), task.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("create task %s: %w", task.ID, ErrDuplicateTask)
		}
		return fmt.Errorf("create task %s: %w", task.ID, err)
	}
	return nil
}

// GetByID returns a task or model.ErrTaskNotFound.
func (s *PGTaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// ListByOwner returns the owner's tasks ordered newest-first. A non-positive
// limit returns every task for the owner.
func (s *PGTaskStore) ListByOwner(ctx context.Context, owner string, limit int) ([]*model.Task, error) {
	// LIMIT NULL is Postgres for "no limit".
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, owner, limitArg)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %s: %w", owner, err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// MarkRunning transitions a pending task to running.
func (s *PGTaskStore) MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4`,
		model.TaskStatusRunning, startedAt, id, model.TaskStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark task %s running: %w", id, err)
	}
	return rowsAffected(res)
}

// UpdateProgress persists progress/message for a running task and returns the
// task's current status. Progress never decreases.
func (s *PGTaskStore) UpdateProgress(
	ctx context.Context,
	id string,
	update core.ProgressUpdate,
) (model.TaskStatus, error) {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET progress = GREATEST(progress, $1), status_message = $2
		WHERE id = $3 AND status = $4`,
		update.Progress, update.Message, id, model.TaskStatusRunning)
	if err != nil {
		return "", fmt.Errorf("update progress for task %s: %w", id, err)
	}

	var status model.TaskStatus
	if err := s.DB.QueryRowContext(ctx,
		`SELECT status FROM tasks WHERE id = $1`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrTaskNotFound
		}
		return "", fmt.Errorf("read status for task %s: %w", id, err)
	}
	return status, nil
}

// Complete transitions a running task to completed with its result.
func (s *PGTaskStore) Complete(ctx context.Context, id string, result []byte) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = $1, result = $2, progress = 100, completed_at = $3
		WHERE id = $4 AND status = $5`,
		model.TaskStatusCompleted, result, s.timeProvider.Now(), id, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("complete task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// Fail transitions a running task to failed with an error message.
func (s *PGTaskStore) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = $1, error = $2, completed_at = $3
		WHERE id = $4 AND status = $5`,
		model.TaskStatusFailed, errMsg, s.timeProvider.Now(), id, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("fail task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// Cancel transitions a pending or running task to cancelled.
func (s *PGTaskStore) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = $1, status_message = $2, completed_at = $3
		WHERE id = $4 AND status IN ($5, $6)`,
		model.TaskStatusCancelled, model.CancelledMessage, s.timeProvider.Now(),
		id, model.TaskStatusPending, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("cancel task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// NextPending returns the oldest pending task, or nil if none.
func (s *PGTaskStore) NextPending(ctx context.Context) (*model.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`, model.TaskStatusPending)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("next pending task: %w", err)
	}
	return task, nil
}

// Stats returns counts of tasks per status.
func (s *PGTaskStore) Stats(ctx context.Context) (*model.TaskStats, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()
	return collectStats(rows)
}

// DeleteTerminalBefore removes terminal tasks whose completion is older than cutoff.
func (s *PGTaskStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE status IN ($1, $2, $3) AND completed_at < $4`,
		model.TaskStatusCompleted, model.TaskStatusFailed, model.TaskStatusCancelled, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete terminal tasks: %w", err)
	}
	return res.RowsAffected()
}

// FailOrphanedRunning marks every running task as failed with the given message.
func (s *PGTaskStore) FailOrphanedRunning(ctx context.Context, errMsg string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = $1, error = $2, completed_at = $3
		WHERE status = $4`,
		model.TaskStatusFailed, errMsg, s.timeProvider.Now(), model.TaskStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("fail orphaned running tasks: %w", err)
	}
	return res.RowsAffected()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		task   model.Task
		params []byte
		result []byte
	)
	err := row.Scan(
		&task.ID, &task.Type, &task.Status, &task.Owner,
		&task.Progress, &task.StatusMessage, &params, &result,
		&task.Error, &task.CreatedAt, &task.StartedAt, &task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Params = params
	task.Result = result
	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]*model.Task, error) {
	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func collectStats(rows *sql.Rows) (*model.TaskStats, error) {
	var stats model.TaskStats
	for rows.Next() {
		var (
			status model.TaskStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		switch status {
		case model.TaskStatusPending:
			stats.Pending = count
		case model.TaskStatusRunning:
			stats.Running = count
		case model.TaskStatusCompleted:
			stats.Completed = count
		case model.TaskStatusFailed:
			stats.Failed = count
		case model.TaskStatusCancelled:
			stats.Cancelled = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return &stats, nil
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
