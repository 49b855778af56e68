package routing

import (
	"context"

	"github.com/ukydev/safe-route/internal/models"
)

// Route is one alternative produced by the routing engine.
type Route struct {
	Coordinates models.RoutePath `json:"coordinates"`
	DistanceM   float64          `json:"distance_m"`
	DurationS   float64          `json:"duration_s"`
}

// RoutesFound is the completion event of a routing request. Exactly one event
// is delivered per request, carrying either routes or an error.
type RoutesFound struct {
	RequestID string
	Routes    []Route
	Err       error
}

// Engine computes paths asynchronously. Request returns a channel that receives
// a single RoutesFound for requestID and is then closed, so a caller can never
// observe an event that belongs to another request.
type Engine interface {
	Request(ctx context.Context, requestID string, start, end models.Coordinate) <-chan RoutesFound
}
