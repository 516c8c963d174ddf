package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// DefaultItemDelay paces vendor calls between batch items to stay inside
// vendor rate limits.
const DefaultItemDelay = 500 * time.Millisecond

// coordinateResolver is the slice of ResolverService the batch workflow needs.
type coordinateResolver interface {
	Resolve(ctx context.Context, origin model.Coordinate) (*model.Resolution, error)
}

// BatchEnrichmentWorkflowOptions holds the dependencies for creating a BatchEnrichmentWorkflow.
type BatchEnrichmentWorkflowOptions struct {
	Resolver  coordinateResolver // Required: coordinate resolver
	ItemDelay time.Duration      // Optional: delay between items, default 500ms
	Logger    *slog.Logger       // Optional: structured logger
}

// BatchEnrichmentWorkflow resolves a list of coordinates one at a time and
// classifies each resolved parcel's land use. Items are processed
// sequentially; coordinates that cannot be resolved land in the result as
// unknowns rather than failing the batch.
type BatchEnrichmentWorkflow struct {
	resolver  coordinateResolver
	itemDelay time.Duration
	logger    *slog.Logger
}

// NewBatchEnrichmentWorkflow constructs a new BatchEnrichmentWorkflow.
func NewBatchEnrichmentWorkflow(opts BatchEnrichmentWorkflowOptions) (*BatchEnrichmentWorkflow, error) {
	if opts.Resolver == nil {
		return nil, errors.New("Resolver is required")
	}

	itemDelay := opts.ItemDelay
	if itemDelay <= 0 {
		itemDelay = DefaultItemDelay
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("workflow", "batch_enrichment")
	}

	return &BatchEnrichmentWorkflow{
		resolver:  opts.Resolver,
		itemDelay: itemDelay,
		logger:    logger,
	}, nil
}

// Run implements Workflow.
func (w *BatchEnrichmentWorkflow) Run(
	ctx context.Context,
	task *model.Task,
	report ProgressFunc,
) (json.RawMessage, error) {
	var params model.BatchEnrichmentParams
	if err := json.Unmarshal(task.Params, &params); err != nil {
		return nil, fmt.Errorf("parse batch enrichment params: %w", err)
	}
	if len(params.Coordinates) == 0 {
		return nil, errors.New("batch enrichment params: at least one coordinate is required")
	}

	total := len(params.Coordinates)
	if err := report(ctx, 0, fmt.Sprintf("Enriching %d properties", total)); err != nil {
		return nil, err
	}

	properties := make([]model.EnrichedProperty, 0, total)
	for i, coord := range params.Coordinates {
		property, err := w.enrichOne(ctx, coord)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)

		progress := (i + 1) * 100 / total
		message := fmt.Sprintf("Enriched %d of %d properties", i+1, total)
		if err := report(ctx, progress, message); err != nil {
			return nil, err
		}

		if i < total-1 {
			if err := w.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	result, err := json.Marshal(model.BatchEnrichmentResult{Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("marshal batch enrichment result: %w", err)
	}
	return result, nil
}

// enrichOne resolves and classifies a single coordinate. Resolution failures
// other than missing credentials or cancellation degrade to an unknown entry.
func (w *BatchEnrichmentWorkflow) enrichOne(
	ctx context.Context,
	coord model.Coordinate,
) (model.EnrichedProperty, error) {
	resolution, err := w.resolver.Resolve(ctx, coord)
	if err != nil {
		if errors.Is(err, core.ErrVendorNotConfigured) || isContextCancellation(err) {
			return model.EnrichedProperty{}, err
		}
		if w.logger != nil {
			w.logger.WarnContext(ctx, "coordinate resolution failed",
				"lat", coord.Lat,
				"lng", coord.Lng,
				"error", err,
			)
		}
		return model.EnrichedProperty{Coordinate: coord, Category: model.LandUseUnknown}, nil
	}

	return model.EnrichedProperty{
		Coordinate: coord,
		Record:     resolution.Record,
		Category:   geo.ClassifyLandUse(resolution.Record),
	}, nil
}

func (w *BatchEnrichmentWorkflow) pause(ctx context.Context) error {
	timer := time.NewTimer(w.itemDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
