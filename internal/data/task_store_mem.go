package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// MemTaskStore is an in-memory TaskStore for development mode and tests.
// It applies the same state-machine rules as the SQL stores.
type MemTaskStore struct {
	mu           sync.Mutex
	tasks        map[string]*model.Task
	order        []string // insertion order, for FIFO promotion
	timeProvider TimeProvider
}

// NewMemTaskStore creates an empty MemTaskStore.
func NewMemTaskStore(cfg StoreConfig) *MemTaskStore {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemTaskStore{
		tasks:        make(map[string]*model.Task),
		timeProvider: tp,
	}
}

// Create inserts a new task in pending status.
func (s *MemTaskStore) Create(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return ErrDuplicateTask
	}
	cp := *task
	s.tasks[task.ID] = &cp
	s.order = append(s.order, task.ID)
	return nil
}

// GetByID returns a copy of the task or model.ErrTaskNotFound.
func (s *MemTaskStore) GetByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

// ListByOwner returns the owner's tasks ordered newest-first.
func (s *MemTaskStore) ListByOwner(_ context.Context, owner string, limit int) ([]*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*model.Task{}
	for _, task := range s.tasks {
		if task.Owner == owner {
			cp := *task
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRunning transitions a pending task to running.
func (s *MemTaskStore) MarkRunning(_ context.Context, id string, startedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusPending {
		return false, nil
	}
	task.Status = model.TaskStatusRunning
	task.StartedAt = &startedAt
	return true, nil
}

// UpdateProgress persists progress/message for a running task and returns the
// task's current status.
func (s *MemTaskStore) UpdateProgress(
	_ context.Context,
	id string,
	update core.ProgressUpdate,
) (model.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return "", model.ErrTaskNotFound
	}
	if task.Status == model.TaskStatusRunning {
		if update.Progress > task.Progress {
			task.Progress = update.Progress
		}
		task.StatusMessage = update.Message
	}
	return task.Status, nil
}

// Complete transitions a running task to completed with its result.
func (s *MemTaskStore) Complete(_ context.Context, id string, result []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusRunning {
		return false, nil
	}
	now := s.timeProvider.Now()
	task.Status = model.TaskStatusCompleted
	task.Result = result
	task.Progress = 100
	task.CompletedAt = &now
	return true, nil
}

// Fail transitions a running task to failed with an error message.
func (s *MemTaskStore) Fail(_ context.Context, id, errMsg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != model.TaskStatusRunning {
		return false, nil
	}
	now := s.timeProvider.Now()
	task.Status = model.TaskStatusFailed
	task.Error = &errMsg
	task.CompletedAt = &now
	return true, nil
}

// Cancel transitions a pending or running task to cancelled.
func (s *MemTaskStore) Cancel(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false, nil
	}
	if task.Status != model.TaskStatusPending && task.Status != model.TaskStatusRunning {
		return false, nil
	}
	now := s.timeProvider.Now()
	task.Status = model.TaskStatusCancelled
	task.StatusMessage = model.CancelledMessage
	task.CompletedAt = &now
	return true, nil
}

// NextPending returns the oldest pending task, or nil if none.
func (s *MemTaskStore) NextPending(_ context.Context) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		task := s.tasks[id]
		if task != nil && task.Status == model.TaskStatusPending {
			cp := *task
			return &cp, nil
		}
	}
	return nil, nil
}

// Stats returns counts of tasks per status.
func (s *MemTaskStore) Stats(_ context.Context) (*model.TaskStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats model.TaskStats
	for _, task := range s.tasks {
		switch task.Status {
		case model.TaskStatusPending:
			stats.Pending++
		case model.TaskStatusRunning:
			stats.Running++
		case model.TaskStatusCompleted:
			stats.Completed++
		case model.TaskStatusFailed:
			stats.Failed++
		case model.TaskStatusCancelled:
			stats.Cancelled++
		}
	}
	return &stats, nil
}

// DeleteTerminalBefore removes terminal tasks whose completion is older than cutoff.
func (s *MemTaskStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.order[:0]
	for _, id := range s.order {
		task := s.tasks[id]
		if task != nil && task.Status.Terminal() &&
			task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed, nil
}

// FailOrphanedRunning marks every running task as failed with the given message.
func (s *MemTaskStore) FailOrphanedRunning(_ context.Context, errMsg string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, task := range s.tasks {
		if task.Status == model.TaskStatusRunning {
			now := s.timeProvider.Now()
			msg := errMsg
			task.Status = model.TaskStatusFailed
			task.Error = &msg
			task.CompletedAt = &now
			count++
		}
	}
	return count, nil
}
