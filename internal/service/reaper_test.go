package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/config"
	"github.com/parcelworks/landscout/internal/data"
	"github.com/parcelworks/landscout/internal/domain/model"
)

func seedTerminalTask(t *testing.T, store *data.MemTaskStore, id string, status model.TaskStatus, completedAt time.Time) {
	t.Helper()
	task := &model.Task{
		ID:        id,
		Type:      model.TaskTypeRegionScan,
		Status:    status,
		Owner:     "analyst",
		Params:    json.RawMessage(`{}`),
		CreatedAt: completedAt.Add(-time.Minute),
	}
	if status.Terminal() {
		task.CompletedAt = &completedAt
	}
	require.NoError(t, store.Create(context.Background(), task))
}

func TestReaperDeletesOnlyAgedTerminalTasks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tp := data.NewFixedTimeProvider(now)
	store := data.NewMemTaskStore(data.StoreConfig{TimeProvider: tp})

	seedTerminalTask(t, store, "old-completed", model.TaskStatusCompleted, now.Add(-48*time.Hour))
	seedTerminalTask(t, store, "old-failed", model.TaskStatusFailed, now.Add(-25*time.Hour))
	seedTerminalTask(t, store, "fresh-completed", model.TaskStatusCompleted, now.Add(-time.Hour))
	seedTerminalTask(t, store, "still-running", model.TaskStatusRunning, now)

	svc, err := NewReaperService(ReaperServiceOptions{
		Store: store,
		Config: config.ReaperConfig{
			Interval:     5 * time.Minute,
			RetentionAge: 24 * time.Hour,
		},
		TimeProvider: tp,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCleanup(context.Background()))

	_, err = store.GetByID(context.Background(), "old-completed")
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	_, err = store.GetByID(context.Background(), "old-failed")
	assert.ErrorIs(t, err, model.ErrTaskNotFound)

	_, err = store.GetByID(context.Background(), "fresh-completed")
	assert.NoError(t, err)
	_, err = store.GetByID(context.Background(), "still-running")
	assert.NoError(t, err)
}

func TestReaperRunStopsGracefullyOnCancel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tp := data.NewFixedTimeProvider(now)
	store := data.NewMemTaskStore(data.StoreConfig{TimeProvider: tp})
	seedTerminalTask(t, store, "old-completed", model.TaskStatusCompleted, now.Add(-48*time.Hour))

	svc, err := NewReaperService(ReaperServiceOptions{
		Store: store,
		Config: config.ReaperConfig{
			Interval:     10 * time.Millisecond,
			RetentionAge: 24 * time.Hour,
		},
		TimeProvider: tp,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// The immediate post-jitter cleanup removes the aged task.
	require.Eventually(t, func() bool {
		_, err := store.GetByID(context.Background(), "old-completed")
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a graceful shutdown, not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
