// Package geo provides great-circle distance calculation for the
// observation filtering path.
package geo

import (
	"math"

	"climagrid/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm computes the haversine great-circle distance between two
// coordinates in kilometers. The result is non-negative and zero for
// coincident points. The asin argument is clamped to guard against
// floating-point overshoot past 1.0 near antipodal points.
func DistanceKm(a, b types.Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
