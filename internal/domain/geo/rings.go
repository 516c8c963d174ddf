// Package geo provides pure geospatial helpers for the resolver and workflows:
// ring probe generation, bounding-box partitioning, and land-use classification.
package geo

import (
	"math"
	"sort"

	"github.com/parcelworks/landscout/internal/domain/model"
)

const (
	// metersPerDegreeLat is the equirectangular approximation for one degree
	// of latitude. Longitude degrees shrink with cos(lat).
	metersPerDegreeLat = 111320.0

	// ProbesPerRing is the number of probe points generated per ring, at 45
	// degree increments starting from due north.
	ProbesPerRing = 8
)

// DefaultRingRadii returns the nominal search radii in meters for the given
// maximum. Radii are sorted ascending so the search always expands outward,
// even when maxRadius is below the middle nominal ring.
func DefaultRingRadii(maxRadiusMeters float64) []float64 {
	if maxRadiusMeters <= 0 {
		maxRadiusMeters = 500
	}
	radii := []float64{100, 250, maxRadiusMeters}
	sort.Float64s(radii)
	return radii
}

// RingProbes generates ProbesPerRing points at the given radius around origin.
// Probe index order is fixed (bearing 0, 45, ..., 315 degrees) so callers can
// break acceptance ties deterministically.
func RingProbes(origin model.Coordinate, radiusMeters float64) []model.Coordinate {
	probes := make([]model.Coordinate, 0, ProbesPerRing)
	latDelta := radiusMeters / metersPerDegreeLat

	// Guard against the degenerate cos(90) case at the poles.
	cosLat := math.Cos(origin.Lat * math.Pi / 180)
	if math.Abs(cosLat) < 1e-6 {
		cosLat = 1e-6
	}
	lngDelta := radiusMeters / (metersPerDegreeLat * cosLat)

	for i := range ProbesPerRing {
		bearing := float64(i) * 45 * math.Pi / 180
		probes = append(probes, model.Coordinate{
			Lat: origin.Lat + latDelta*math.Cos(bearing),
			Lng: origin.Lng + lngDelta*math.Sin(bearing),
		})
	}
	return probes
}

// Distance returns the approximate distance in meters between two coordinates
// using the same local equirectangular model as RingProbes.
func Distance(a, b model.Coordinate) float64 {
	meanLat := (a.Lat + b.Lat) / 2 * math.Pi / 180
	dLat := (b.Lat - a.Lat) * metersPerDegreeLat
	dLng := (b.Lng - a.Lng) * metersPerDegreeLat * math.Cos(meanLat)
	return math.Hypot(dLat, dLng)
}
