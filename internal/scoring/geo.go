package scoring

import (
	"github.com/golang/geo/s2"
	"github.com/ukydev/safe-route/internal/models"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371000.0

func latLng(c models.Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b models.Coordinate) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadiusMeters
}

// Midpoint returns the point halfway along the great circle from a to b.
func Midpoint(a, b models.Coordinate) models.Coordinate {
	mid := s2.LatLngFromPoint(s2.Interpolate(0.5, s2.PointFromLatLng(latLng(a)), s2.PointFromLatLng(latLng(b))))
	return models.Coordinate{Lat: mid.Lat.Degrees(), Lon: mid.Lng.Degrees()}
}
