// Package scoring rates route segments by the severity of nearby historical
// accidents.
package scoring

import (
	"sort"

	"github.com/mmcloughlin/geohash"
	"github.com/ukydev/safe-route/internal/models"
)

// Defaults for Options.
const (
	DefaultNeighbors     = 10
	DefaultMajorSeverity = 3
	DefaultMaxSeverity   = 4

	// cellPrecision is the geohash length of an index bucket (about 4.9km x 4.9km).
	cellPrecision = 5
)

// Options tunes the scorer.
type Options struct {
	Neighbors     int // accidents considered per segment
	MajorSeverity int // severity at or above which an accident counts as major
	MaxSeverity   int // severity that maps to full heat intensity
}

func (o Options) withDefaults() Options {
	if o.Neighbors <= 0 {
		o.Neighbors = DefaultNeighbors
	}
	if o.MajorSeverity <= 0 {
		o.MajorSeverity = DefaultMajorSeverity
	}
	if o.MaxSeverity <= 0 {
		o.MaxSeverity = DefaultMaxSeverity
	}
	return o
}

// Index answers nearest-accident queries. Samples are bucketed by geohash
// cell; a query scans the 3x3 block of cells around the point and falls back
// to a full scan when the block cannot prove the result exact.
type Index struct {
	accidents []models.Accident
	cells     map[string][]int
	opts      Options
}

func NewIndex(accidents []models.Accident, opts Options) *Index {
	idx := &Index{
		accidents: accidents,
		cells:     make(map[string][]int),
		opts:      opts.withDefaults(),
	}
	for i, a := range accidents {
		cell := geohash.EncodeWithPrecision(a.Lat, a.Lon, cellPrecision)
		idx.cells[cell] = append(idx.cells[cell], i)
	}
	return idx
}

// Len returns the number of indexed samples.
func (idx *Index) Len() int {
	return len(idx.accidents)
}

type neighbor struct {
	index    int
	distance float64
}

// Nearest returns up to k accidents closest to c, nearest first.
func (idx *Index) Nearest(c models.Coordinate, k int) []models.Accident {
	if k <= 0 || len(idx.accidents) == 0 {
		return nil
	}

	cell := geohash.EncodeWithPrecision(c.Lat, c.Lon, cellPrecision)
	var candidates []neighbor
	for _, h := range append(geohash.Neighbors(cell), cell) {
		for _, i := range idx.cells[h] {
			candidates = append(candidates, neighbor{i, Distance(c, idx.accidents[i].Coordinate())})
		}
	}
	sortNeighbors(candidates)

	// Anything outside the block is at least one cell away from c. The margin
	// covers the difference between parallels and great circles.
	if len(candidates) < k || candidates[k-1].distance > 0.99*cellSpan(cell) {
		candidates = candidates[:0]
		for i, a := range idx.accidents {
			candidates = append(candidates, neighbor{i, Distance(c, a.Coordinate())})
		}
		sortNeighbors(candidates)
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]models.Accident, len(candidates))
	for i, n := range candidates {
		out[i] = idx.accidents[n.index]
	}
	return out
}

func sortNeighbors(ns []neighbor) {
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].distance < ns[j].distance })
}

// cellSpan is the smaller side of a geohash cell in meters.
func cellSpan(cell string) float64 {
	box := geohash.BoundingBox(cell)
	height := Distance(
		models.Coordinate{Lat: box.MinLat, Lon: box.MinLng},
		models.Coordinate{Lat: box.MaxLat, Lon: box.MinLng},
	)
	// Measure width on the parallel nearest a pole, where it is narrowest.
	lat := box.MaxLat
	if -box.MinLat > box.MaxLat {
		lat = box.MinLat
	}
	width := Distance(
		models.Coordinate{Lat: lat, Lon: box.MinLng},
		models.Coordinate{Lat: lat, Lon: box.MaxLng},
	)
	if width < height {
		return width
	}
	return height
}

// Risk is the share of major accidents among the nearest samples to c.
func (idx *Index) Risk(c models.Coordinate) float64 {
	nearest := idx.Nearest(c, idx.opts.Neighbors)
	if len(nearest) == 0 {
		return 0
	}
	major := 0
	for _, a := range nearest {
		if a.Severity >= idx.opts.MajorSeverity {
			major++
		}
	}
	return float64(major) / float64(len(nearest))
}

// ScoreRoute scores each segment of waypoints at its midpoint. The result has
// exactly len(waypoints)-1 scores.
func (idx *Index) ScoreRoute(waypoints []models.Coordinate) *models.ScoredRoute {
	route := &models.ScoredRoute{Waypoints: waypoints, Scores: []float64{}}
	for i := 0; i+1 < len(waypoints); i++ {
		route.Scores = append(route.Scores, idx.Risk(Midpoint(waypoints[i], waypoints[i+1])))
	}
	return route
}

// HeatPoints converts the samples to heatmap points with intensity
// severity/MaxSeverity clamped to [0,1].
func (idx *Index) HeatPoints() []models.HeatPoint {
	points := make([]models.HeatPoint, len(idx.accidents))
	for i, a := range idx.accidents {
		intensity := float64(a.Severity) / float64(idx.opts.MaxSeverity)
		if intensity < 0 {
			intensity = 0
		} else if intensity > 1 {
			intensity = 1
		}
		points[i] = models.HeatPoint{Lat: a.Lat, Lon: a.Lon, Intensity: intensity}
	}
	return points
}
