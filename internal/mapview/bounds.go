package mapview

import (
	"github.com/golang/geo/s2"
	"github.com/ukydev/safe-route/internal/models"
)

// Bounds is a lat/lng rectangle.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the smallest rectangle containing every coordinate. ok is
// false for an empty path.
func BoundsOf(path []models.Coordinate) (b Bounds, ok bool) {
	if len(path) == 0 {
		return Bounds{}, false
	}
	rect := s2.EmptyRect()
	for _, c := range path {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lon))
	}
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}, true
}
