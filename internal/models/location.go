package models

// Coordinate is a WGS84 point. Values are never mutated after construction.
type Coordinate struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Pair returns the coordinate in the [lat, lon] wire form used by the risk backend.
func (c Coordinate) Pair() []float64 {
	return []float64{c.Lat, c.Lon}
}

// Pairs converts an ordered path into [lat, lon] pairs, keeping travel order.
func Pairs(path []Coordinate) [][]float64 {
	out := make([][]float64, len(path))
	for i, c := range path {
		out[i] = c.Pair()
	}
	return out
}

// Candidate is a single geocoding match.
type Candidate struct {
	Coordinate
	DisplayName string  `json:"display_name,omitempty"`
	Class       string  `json:"class,omitempty"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
}
