package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// CombinedAnalysisWorkflow partitions a region and loads its demographics in
// one task so callers get a self-contained analysis payload.
type CombinedAnalysisWorkflow struct {
	demographics demographicsLoader
	logger       *slog.Logger
}

// NewCombinedAnalysisWorkflow constructs a new CombinedAnalysisWorkflow.
func NewCombinedAnalysisWorkflow(demographics demographicsLoader, logger *slog.Logger) (*CombinedAnalysisWorkflow, error) {
	if demographics == nil {
		return nil, errors.New("DemographicsService is required")
	}
	if logger != nil {
		logger = logger.With("workflow", "combined_analysis")
	}
	return &CombinedAnalysisWorkflow{demographics: demographics, logger: logger}, nil
}

// Run implements Workflow.
func (w *CombinedAnalysisWorkflow) Run(
	ctx context.Context,
	task *model.Task,
	report ProgressFunc,
) (json.RawMessage, error) {
	var params model.CombinedAnalysisParams
	if err := json.Unmarshal(task.Params, &params); err != nil {
		return nil, fmt.Errorf("parse combined analysis params: %w", err)
	}
	if err := params.Box.Validate(); err != nil {
		return nil, fmt.Errorf("combined analysis params: %w", err)
	}

	if err := report(ctx, 0, "Partitioning region"); err != nil {
		return nil, err
	}

	cells := geo.PartitionBox(params.Box, 0)

	if err := report(ctx, 50, fmt.Sprintf("Partitioned into %d cells, loading demographics", len(cells))); err != nil {
		return nil, err
	}

	tracts, err := w.demographics.Load(ctx, params.Box)
	if err != nil {
		return nil, err
	}

	if err := report(ctx, 100, fmt.Sprintf("Analysis complete: %d cells, %d tracts", len(cells), len(tracts))); err != nil {
		return nil, err
	}

	result, err := json.Marshal(model.CombinedAnalysisResult{Cells: cells, Tracts: tracts})
	if err != nil {
		return nil, fmt.Errorf("marshal combined analysis result: %w", err)
	}
	return result, nil
}
