// Package geo provides great-circle distance math for vehicle matching.
package geo

import (
	"math"

	"github.com/medisetu/dispatch/core/model"
)

// earthRadiusKm is the mean spherical Earth radius.
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two locations in
// kilometers. Symmetric and zero for identical coordinates.
func DistanceKm(a, b model.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
