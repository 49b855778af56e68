// Package render turns scored waypoints into colored route segments.
package render

import "github.com/ukydev/safe-route/internal/models"

// RiskBand is the discrete classification of a risk score.
type RiskBand string

const (
	Safer    RiskBand = "safer"
	Moderate RiskBand = "moderate"
	Higher   RiskBand = "higher"
)

const (
	ModerateThreshold = 0.3
	HigherThreshold   = 0.6

	SegmentWeight  = 8
	SegmentOpacity = 0.8
)

var palette = map[RiskBand]string{
	Safer:    "#22c55e",
	Moderate: "#facc15",
	Higher:   "#ef4444",
}

// Color returns the hex color drawn for band.
func (b RiskBand) Color() string {
	return palette[b]
}

// Classify maps a score to its band. Lower bounds are inclusive.
func Classify(score float64) RiskBand {
	switch {
	case score < ModerateThreshold:
		return Safer
	case score < HigherThreshold:
		return Moderate
	default:
		return Higher
	}
}

// Segment is a straight line between two consecutive waypoints.
type Segment struct {
	From    models.Coordinate `json:"from"`
	To      models.Coordinate `json:"to"`
	Score   float64           `json:"score"`
	Band    RiskBand          `json:"band"`
	Color   string            `json:"color"`
	Weight  int               `json:"weight"`
	Opacity float64           `json:"opacity"`
}

// Segments builds one segment per scored pair of consecutive waypoints.
// When the lengths disagree, only min(len(scores), len(waypoints)-1) segments
// are produced.
func Segments(waypoints []models.Coordinate, scores []float64) []Segment {
	n := len(waypoints) - 1
	if len(scores) < n {
		n = len(scores)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		band := Classify(scores[i])
		out = append(out, Segment{
			From:    waypoints[i],
			To:      waypoints[i+1],
			Score:   scores[i],
			Band:    band,
			Color:   band.Color(),
			Weight:  SegmentWeight,
			Opacity: SegmentOpacity,
		})
	}
	return out
}

// Mismatch reports how far len(scores) is from len(waypoints)-1. Zero means
// the pair satisfies the one-score-per-segment contract.
func Mismatch(waypoints []models.Coordinate, scores []float64) int {
	segments := len(waypoints) - 1
	if segments < 0 {
		segments = 0
	}
	return len(scores) - segments
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Band  RiskBand `json:"band"`
	Label string   `json:"label"`
	Color string   `json:"color"`
}

// Legend lists the bands from safest to riskiest.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Band: Safer, Label: "Safer", Color: Safer.Color()},
		{Band: Moderate, Label: "Moderate Risk", Color: Moderate.Color()},
		{Band: Higher, Label: "Higher Risk", Color: Higher.Color()},
	}
}
