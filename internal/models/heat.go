package models

import "encoding/json"

// HeatPoint is one density sample for the accident heatmap.
type HeatPoint struct {
	Lat       float64
	Lon       float64
	Intensity float64 // 0-1
}

// MarshalJSON encodes the point as the [lat, lon, intensity] triple expected by the density layer.
func (p HeatPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.Lat, p.Lon, p.Intensity})
}

// Accident is a historical accident sample used for heatmaps and route scoring.
type Accident struct {
	ID       string  `bson:"_id,omitempty" json:"id,omitempty"`
	Lat      float64 `bson:"start_lat" json:"lat"`
	Lon      float64 `bson:"start_lng" json:"lon"`
	Severity int     `bson:"severity" json:"severity"`
}

// Coordinate returns the accident location.
func (a Accident) Coordinate() Coordinate {
	return Coordinate{Lat: a.Lat, Lon: a.Lon}
}
