package geo

import (
	"math"
	"testing"

	"climagrid/internal/types"
)

func TestDistanceKm_CoincidentPointsAreZero(t *testing.T) {
	coords := []types.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 40.7128, Longitude: -74.0060},
		{Latitude: -90, Longitude: 0},
		{Latitude: 89.9999, Longitude: 179.9999},
	}

	for _, c := range coords {
		if d := DistanceKm(c, c); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want 0", c, c, d)
		}
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	a := types.Coordinate{Latitude: 52.52, Longitude: 13.405}
	b := types.Coordinate{Latitude: 40.7128, Longitude: -74.0060}

	if DistanceKm(a, b) != DistanceKm(b, a) {
		t.Errorf("distance is not symmetric: %f vs %f", DistanceKm(a, b), DistanceKm(b, a))
	}
}

func TestDistanceKm_OneDegreeAtEquator(t *testing.T) {
	a := types.Coordinate{Latitude: 0, Longitude: 0}
	b := types.Coordinate{Latitude: 0, Longitude: 1}

	// One degree of longitude at the equator is 2*pi*R/360.
	want := 2 * math.Pi * EarthRadiusKm / 360
	got := DistanceKm(a, b)
	if math.Abs(got-want) > 0.01 {
		t.Errorf("DistanceKm = %f, want %f", got, want)
	}
}

func TestDistanceKm_AntipodalIsStable(t *testing.T) {
	a := types.Coordinate{Latitude: 0, Longitude: 0}
	b := types.Coordinate{Latitude: 0, Longitude: 180}

	got := DistanceKm(a, b)
	if math.IsNaN(got) {
		t.Fatal("antipodal distance is NaN")
	}

	// Half the Earth's circumference.
	want := math.Pi * EarthRadiusKm
	if math.Abs(got-want) > 0.5 {
		t.Errorf("antipodal distance = %f, want %f", got, want)
	}
}

func TestDistanceKm_NonNegative(t *testing.T) {
	pairs := [][2]types.Coordinate{
		{{Latitude: 1, Longitude: 1}, {Latitude: -1, Longitude: -1}},
		{{Latitude: 89, Longitude: 0}, {Latitude: -89, Longitude: 180}},
		{{Latitude: 0.0001, Longitude: 0}, {Latitude: 0, Longitude: 0}},
	}

	for _, p := range pairs {
		if d := DistanceKm(p[0], p[1]); d < 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want >= 0", p[0], p[1], d)
		}
	}
}
