package models

// RoutePath is an ordered sequence of waypoints in travel order.
type RoutePath []Coordinate

// ScoredRoute is the risk backend's answer: Scores[i] belongs to the segment
// Waypoints[i] -> Waypoints[i+1].
type ScoredRoute struct {
	Waypoints []Coordinate `json:"waypoints"`
	Scores    []float64    `json:"safety_scores"`
}
