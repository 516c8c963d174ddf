package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/domain/model"
)

func TestCombinedAnalysisMergesCellsAndTracts(t *testing.T) {
	box := model.BoundingBox{MinLat: 40.0, MinLng: -74.2, MaxLat: 40.2, MaxLng: -74.0}
	tracts := []model.TractRecord{
		{TractID: "34017003100", MedianIncome: 61200, Population: 5120},
		{TractID: "34017003200", MedianIncome: 55400, Population: 4310},
	}
	loader := &stubDemographics{load: func(_ context.Context, b model.BoundingBox) ([]model.TractRecord, error) {
		assert.Equal(t, box, b)
		return tracts, nil
	}}

	wf, err := NewCombinedAnalysisWorkflow(loader, nil)
	require.NoError(t, err)

	task := workflowTask(t, model.TaskTypeCombinedAnalysis, model.CombinedAnalysisParams{Box: box})
	var records []progressRecord
	raw, err := wf.Run(context.Background(), task, recordProgress(&records))
	require.NoError(t, err)

	var result model.CombinedAnalysisResult
	require.NoError(t, json.Unmarshal(raw, &result))
	// 0.2 degrees per side at the default 0.1 degree cell size.
	assert.Len(t, result.Cells, 4)
	assert.Equal(t, tracts, result.Tracts)

	require.Len(t, records, 3)
	assert.Equal(t, 0, records[0].progress)
	assert.Equal(t, 50, records[1].progress)
	assert.Equal(t, progressRecord{progress: 100, message: "Analysis complete: 4 cells, 2 tracts"}, records[2])
}

func TestCombinedAnalysisRejectsInvalidBox(t *testing.T) {
	loader := &stubDemographics{load: func(context.Context, model.BoundingBox) ([]model.TractRecord, error) {
		t.Fatal("loader must not be called for an invalid box")
		return nil, nil
	}}
	wf, err := NewCombinedAnalysisWorkflow(loader, nil)
	require.NoError(t, err)

	task := workflowTask(t, model.TaskTypeCombinedAnalysis, model.CombinedAnalysisParams{
		Box: model.BoundingBox{MinLat: 40.2, MinLng: -74.0, MaxLat: 40.0, MaxLng: -74.2},
	})
	_, err = wf.Run(context.Background(), task, recordProgress(&[]progressRecord{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "combined analysis params")
}
