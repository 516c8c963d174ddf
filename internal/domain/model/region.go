package model

import "errors"

// BoundingBox is a geographic rectangle in WGS84 degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks the box spans a positive area within world bounds.
func (b BoundingBox) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLng < -180 || b.MaxLng > 180 {
		return errors.New("bounding box out of range")
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return errors.New("bounding box has no area")
	}
	return nil
}

// GridCell is one sub-rectangle produced by partitioning a bounding box.
type GridCell struct {
	Index int         `json:"index"`
	Box   BoundingBox `json:"box"`
}

// TractRecord is one census-tract demographic record with its geometry.
type TractRecord struct {
	TractID      string       `json:"tract_id"`
	Geometry     []Coordinate `json:"geometry,omitempty"`
	MedianIncome float64      `json:"median_income"`
	Population   int          `json:"population,omitempty"`
}

// RegionScanParams are the inputs for a region-scan task.
type RegionScanParams struct {
	Box         BoundingBox `json:"box"`
	CellSizeDeg float64     `json:"cell_size_deg,omitempty"`
}

// RegionScanResult is the output of a region-scan task.
type RegionScanResult struct {
	Cells []GridCell `json:"cells"`
}

// BatchEnrichmentParams are the inputs for a batch-enrichment task.
type BatchEnrichmentParams struct {
	Coordinates []Coordinate `json:"coordinates"`
}

// EnrichedProperty is one resolved coordinate with its land-use classification.
type EnrichedProperty struct {
	Coordinate Coordinate   `json:"coordinate"`
	Record     *OwnerRecord `json:"record,omitempty"`
	Category   LandUse      `json:"category"`
}

// BatchEnrichmentResult is the output of a batch-enrichment task.
type BatchEnrichmentResult struct {
	Properties []EnrichedProperty `json:"properties"`
}

// DemographicLoadParams are the inputs for a demographic-load task.
type DemographicLoadParams struct {
	Box BoundingBox `json:"box"`
}

// DemographicLoadResult is the output of a demographic-load task.
type DemographicLoadResult struct {
	Tracts []TractRecord `json:"tracts"`
}

// CombinedAnalysisParams are the inputs for a combined-analysis task.
type CombinedAnalysisParams struct {
	Box BoundingBox `json:"box"`
}

// CombinedAnalysisResult merges region partitioning with demographic data.
type CombinedAnalysisResult struct {
	Cells  []GridCell    `json:"cells"`
	Tracts []TractRecord `json:"tracts"`
}
