package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// SQLiteTaskStore provides SQLite-backed task persistence for development and
// tests. Times are stored as RFC3339 text.
type SQLiteTaskStore struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSQLiteTaskStore creates a new SQLiteTaskStore.
func NewSQLiteTaskStore(db *sql.DB, cfg StoreConfig) *SQLiteTaskStore {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &SQLiteTaskStore{DB: db, timeProvider: tp}
}

const sqliteTaskSchema = `
CREATE TABLE IF NOT EXISTS tasks (
  id             TEXT PRIMARY KEY,
  type           TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'pending',
  owner          TEXT NOT NULL,
  progress       INTEGER NOT NULL DEFAULT 0,
  status_message TEXT NOT NULL DEFAULT '',
  params         TEXT NOT NULL,
  result         TEXT,
  error          TEXT,
  created_at     TEXT NOT NULL,
  started_at     TEXT,
  completed_at   TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks (owner, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at);`

// EnsureSchema creates the tasks table and indexes if they don't exist.
func (s *SQLiteTaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteTaskSchema); err != nil {
		return fmt.Errorf("ensure task schema: %w", err)
	}
	return nil
}

// Create inserts a new task in pending status.
func (s *SQLiteTaskStore) Create(ctx context.Context, task *model.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO tasks (id, type, status, owner, progress, status_message, params, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Type, task.Status, task.Owner,
		task.Progress, task.StatusMessage, string(task.Params), formatTime(task.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("create task %s: %w", task.ID, ErrDuplicateTask)
		}
		return fmt.Errorf("create task %s: %w", task.ID, err)
	}
	return nil
}

// GetByID returns a task or model.ErrTaskNotFound.
func (s *SQLiteTaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanSQLiteTask(row)
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
func (s *SQLiteTaskStore) ListByOwner(ctx context.Context, owner string, limit int) ([]*model.Task, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as unbounded.
		limit = -1
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE owner = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %s: %w", owner, err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, scanErr := scanSQLiteTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan task: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// MarkRunning transitions a pending task to running.
func (s *SQLiteTaskStore) MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		model.TaskStatusRunning, formatTime(startedAt), id, model.TaskStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark task %s running: %w", id, err)
	}
	return rowsAffected(res)
}

// UpdateProgress persists progress/message for a running task and returns the
// task's current status. Progress never decreases.
func (s *SQLiteTaskStore) UpdateProgress(
	ctx context.Context,
	id string,
	update core.ProgressUpdate,
) (model.TaskStatus, error) {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET progress = MAX(progress, ?), status_message = ?
		WHERE id = ? AND status = ?`,
		update.Progress, update.Message, id, model.TaskStatusRunning)
	if err != nil {
		return "", fmt.Errorf("update progress for task %s: %w", id, err)
	}

	var status model.TaskStatus
	if err := s.DB.QueryRowContext(ctx,
		`SELECT status FROM tasks WHERE id = ?`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrTaskNotFound
		}
		return "", fmt.Errorf("read status for task %s: %w", id, err)
	}
	return status, nil
}

// Complete transitions a running task to completed with its result.
func (s *SQLiteTaskStore) Complete(ctx context.Context, id string, result []byte) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, result = ?, progress = 100, completed_at = ?
		WHERE id = ? AND status = ?`,
		model.TaskStatusCompleted, nullableString(result), formatTime(s.timeProvider.Now()),
		id, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("complete task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// Fail transitions a running task to failed with an error message.
func (s *SQLiteTaskStore) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, error = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		model.TaskStatusFailed, errMsg, formatTime(s.timeProvider.Now()),
		id, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("fail task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// Cancel transitions a pending or running task to cancelled.
func (s *SQLiteTaskStore) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, status_message = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		model.TaskStatusCancelled, model.CancelledMessage, formatTime(s.timeProvider.Now()),
		id, model.TaskStatusPending, model.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("cancel task %s: %w", id, err)
	}
	return rowsAffected(res)
}

// NextPending returns the oldest pending task, or nil if none.
func (s *SQLiteTaskStore) NextPending(ctx context.Context) (*model.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`, model.TaskStatusPending)
	task, err := scanSQLiteTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("next pending task: %w", err)
	}
	return task, nil
}

// Stats returns counts of tasks per status.
func (s *SQLiteTaskStore) Stats(ctx context.Context) (*model.TaskStats, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()
	return collectStats(rows)
}

// DeleteTerminalBefore removes terminal tasks whose completion is older than cutoff.
func (s *SQLiteTaskStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE status IN (?, ?, ?) AND completed_at < ?`,
		model.TaskStatusCompleted, model.TaskStatusFailed, model.TaskStatusCancelled,
		formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete terminal tasks: %w", err)
	}
	return res.RowsAffected()
}

// FailOrphanedRunning marks every running task as failed with the given message.
func (s *SQLiteTaskStore) FailOrphanedRunning(ctx context.Context, errMsg string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, error = ?, completed_at = ?
		WHERE status = ?`,
		model.TaskStatusFailed, errMsg, formatTime(s.timeProvider.Now()),
		model.TaskStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("fail orphaned running tasks: %w", err)
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func scanSQLiteTask(row rowScanner) (*model.Task, error) {
	var (
		task      model.Task
		params    string
		result    sql.NullString
		errMsg    sql.NullString
		created   string
		started   sql.NullString
		completed sql.NullString
	)
	err := row.Scan(
		&task.ID, &task.Type, &task.Status, &task.Owner,
		&task.Progress, &task.StatusMessage, &params, &result,
		&errMsg, &created, &started, &completed,
	)
	if err != nil {
		return nil, err
	}

	task.Params = []byte(params)
	if result.Valid {
		task.Result = []byte(result.String)
	}
	if errMsg.Valid {
		task.Error = &errMsg.String
	}

	task.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if task.StartedAt, err = parseNullTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if task.CompletedAt, err = parseNullTime(completed); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	return &task, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
