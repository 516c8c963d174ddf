package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// demographicsLoader is the slice of DemographicsService the workflows need.
type demographicsLoader interface {
	Load(ctx context.Context, box model.BoundingBox) ([]model.TractRecord, error)
}

// DemographicLoadWorkflow fetches demographic tracts for a bounding box.
type DemographicLoadWorkflow struct {
	demographics demographicsLoader
	logger       *slog.Logger
}

// NewDemographicLoadWorkflow constructs a new DemographicLoadWorkflow.
func NewDemographicLoadWorkflow(demographics demographicsLoader, logger *slog.Logger) (*DemographicLoadWorkflow, error) {
	if demographics == nil {
		return nil, errors.New("DemographicsService is required")
	}
	if logger != nil {
		logger = logger.With("workflow", "demographic_load")
	}
	return &DemographicLoadWorkflow{demographics: demographics, logger: logger}, nil
}

// Run implements Workflow.
func (w *DemographicLoadWorkflow) Run(
	ctx context.Context,
	task *model.Task,
	report ProgressFunc,
) (json.RawMessage, error) {
	var params model.DemographicLoadParams
	if err := json.Unmarshal(task.Params, &params); err != nil {
		return nil, fmt.Errorf("parse demographic load params: %w", err)
	}

	if err := report(ctx, 0, "Loading demographic tracts"); err != nil {
		return nil, err
	}

	tracts, err := w.demographics.Load(ctx, params.Box)
	if err != nil {
		return nil, err
	}

	if err := report(ctx, 100, fmt.Sprintf("Loaded %d tracts", len(tracts))); err != nil {
		return nil, err
	}

	result, err := json.Marshal(model.DemographicLoadResult{Tracts: tracts})
	if err != nil {
		return nil, fmt.Errorf("marshal demographic load result: %w", err)
	}
	return result, nil
}
