package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// RegionScanWorkflow partitions a bounding box into grid cells sized for
// downstream per-cell fetches.
type RegionScanWorkflow struct {
	logger *slog.Logger
}

// NewRegionScanWorkflow constructs a new RegionScanWorkflow.
func NewRegionScanWorkflow(logger *slog.Logger) *RegionScanWorkflow {
	if logger != nil {
		logger = logger.With("workflow", "region_scan")
	}
	return &RegionScanWorkflow{logger: logger}
}

// Run implements Workflow.
func (w *RegionScanWorkflow) Run(
	ctx context.Context,
	task *model.Task,
	report ProgressFunc,
) (json.RawMessage, error) {
	var params model.RegionScanParams
	if err := json.Unmarshal(task.Params, &params); err != nil {
		return nil, fmt.Errorf("parse region scan params: %w", err)
	}
	if err := params.Box.Validate(); err != nil {
		return nil, fmt.Errorf("region scan params: %w", err)
	}

	if err := report(ctx, 0, "Partitioning region"); err != nil {
		return nil, err
	}

	cells := geo.PartitionBox(params.Box, params.CellSizeDeg)
	if w.logger != nil {
		w.logger.DebugContext(ctx, "region partitioned", "task_id", task.ID, "cells", len(cells))
	}

	if err := report(ctx, 100, fmt.Sprintf("Partitioned into %d cells", len(cells))); err != nil {
		return nil, err
	}

	result, err := json.Marshal(model.RegionScanResult{Cells: cells})
	if err != nil {
		return nil, fmt.Errorf("marshal region scan result: %w", err)
	}
	return result, nil
}
