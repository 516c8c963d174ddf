// Package devseed populates a development task store with example tasks so
// the engine has work to show immediately after startup.
package devseed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/data"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// Run inserts the default development tasks. Seeding is idempotent: tasks are
// keyed by fixed IDs and duplicates are skipped, so restarts are safe.
func Run(ctx context.Context, store core.TaskStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	failures := 0
	for _, task := range defaultTasks() {
		err := store.Create(ctx, task)
		switch {
		case errors.Is(err, data.ErrDuplicateTask):
			continue
		case err != nil:
			logger.WarnContext(ctx, "failed to seed task",
				"task_id", task.ID, "type", task.Type, "error", err)
			failures++
		default:
			logger.InfoContext(ctx, "seeded task", "task_id", task.ID, "type", task.Type)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func defaultTasks() []*model.Task {
	now := time.Now().UTC()
	manhattanBox := json.RawMessage(
		`{"box":{"min_lat":40.70,"min_lng":-74.02,"max_lat":40.80,"max_lng":-73.93}}`)

	return []*model.Task{
		{
			ID:            "dev-region-scan",
			Type:          model.TaskTypeRegionScan,
			Status:        model.TaskStatusPending,
			Owner:         "dev",
			StatusMessage: "Queued",
			Params:        manhattanBox,
			CreatedAt:     now,
		},
		{
			ID:            "dev-batch-enrichment",
			Type:          model.TaskTypeBatchEnrichment,
			Status:        model.TaskStatusPending,
			Owner:         "dev",
			StatusMessage: "Queued",
			Params: json.RawMessage(`{"coordinates":[` +
				`{"lat":40.7128,"lng":-74.0060},` +
				`{"lat":40.7306,"lng":-73.9866},` +
				`{"lat":40.7484,"lng":-73.9857}]}`),
			CreatedAt: now.Add(time.Second),
		},
		{
			ID:            "dev-demographic-load",
			Type:          model.TaskTypeDemographicLoad,
			Status:        model.TaskStatusPending,
			Owner:         "dev",
			StatusMessage: "Queued",
			Params:        manhattanBox,
			CreatedAt:     now.Add(2 * time.Second),
		},
	}
}
