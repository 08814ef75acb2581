package geo

import (
	"math"
	"testing"

	"github.com/medisetu/dispatch/core/model"
)

func loc(lat, lon float64) model.Location {
	return model.Location{Latitude: lat, Longitude: lon}
}

func TestDistanceIdentity(t *testing.T) {
	points := []model.Location{
		loc(0, 0),
		loc(30.001, 76.001),
		loc(-45.5, 170.2),
	}
	for _, p := range points {
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("distance to self at %+v: got %v want 0", p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := loc(30.000, 76.000)
	b := loc(31.200, 75.300)
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); d1 != d2 {
		t.Errorf("asymmetric distance: %v vs %v", d1, d2)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	d := DistanceKm(loc(0, 0), loc(1, 0))
	if math.Abs(d-111.19) > 0.1 {
		t.Errorf("1 degree latitude: got %v want ~111.19", d)
	}

	// Example from the dispatch scenario: ~0.16 km apart.
	d = DistanceKm(loc(30.000, 76.000), loc(30.001, 76.001))
	if d < 0.1 || d > 0.2 {
		t.Errorf("short hop: got %v want ~0.16", d)
	}
}

func TestDistanceMonotonic(t *testing.T) {
	origin := loc(30, 76)
	prev := 0.0
	for _, dLat := range []float64{0.01, 0.05, 0.1, 0.5, 1, 2} {
		d := DistanceKm(origin, loc(30+dLat, 76))
		if d <= prev {
			t.Fatalf("distance not increasing at dLat=%v: %v <= %v", dLat, d, prev)
		}
		prev = d
	}
}
