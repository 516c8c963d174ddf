package geo

import (
	"math"

	"github.com/parcelworks/landscout/internal/domain/model"
)

// DefaultCellSizeDeg keeps each sub-query inside the geodata API's practical
// response limits.
const DefaultCellSizeDeg = 0.1

// PartitionBox splits a bounding box into a grid of cells no larger than
// cellSizeDeg on a side. Cells are indexed row-major from the southwest
// corner; edge cells are clamped to the box.
func PartitionBox(box model.BoundingBox, cellSizeDeg float64) []model.GridCell {
	if cellSizeDeg <= 0 {
		cellSizeDeg = DefaultCellSizeDeg
	}

	rows := int(math.Ceil((box.MaxLat - box.MinLat) / cellSizeDeg))
	cols := int(math.Ceil((box.MaxLng - box.MinLng) / cellSizeDeg))
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	cells := make([]model.GridCell, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			cell := model.BoundingBox{
				MinLat: box.MinLat + float64(r)*cellSizeDeg,
				MinLng: box.MinLng + float64(c)*cellSizeDeg,
				MaxLat: math.Min(box.MinLat+float64(r+1)*cellSizeDeg, box.MaxLat),
				MaxLng: math.Min(box.MinLng+float64(c+1)*cellSizeDeg, box.MaxLng),
			}
			cells = append(cells, model.GridCell{Index: len(cells), Box: cell})
		}
	}
	return cells
}

// RoundBoxKey reduces a bounding box to a low-cardinality cache key by
// rounding each edge to the given number of decimal places.
func RoundBoxKey(box model.BoundingBox, places int) model.BoundingBox {
	scale := math.Pow(10, float64(places))
	round := func(v float64) float64 { return math.Round(v*scale) / scale }
	return model.BoundingBox{
		MinLat: round(box.MinLat),
		MinLng: round(box.MinLng),
		MaxLat: round(box.MaxLat),
		MaxLng: round(box.MaxLng),
	}
}
