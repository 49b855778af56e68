package mapview

import (
	"github.com/ukydev/safe-route/internal/models"
	"github.com/ukydev/safe-route/internal/render"
)

// LayerID identifies a layer on a Surface. IDs are never reused.
type LayerID uint64

// LayerKind names the type of a map layer.
type LayerKind string

const (
	KindMarker         LayerKind = "marker"
	KindSegments       LayerKind = "segments"
	KindRoutingControl LayerKind = "routing_control"
	KindHeat           LayerKind = "heat"
)

// Layer is anything that can be drawn on a Surface.
type Layer interface {
	Kind() LayerKind
}

// Marker pins a labelled point.
type Marker struct {
	Position  models.Coordinate `json:"position"`
	Label     string            `json:"label"`
	PopupOpen bool              `json:"popup_open"`
}

func (Marker) Kind() LayerKind { return KindMarker }

// SegmentGroup draws a route as risk-colored segments.
type SegmentGroup struct {
	Segments []render.Segment `json:"segments"`
}

func (SegmentGroup) Kind() LayerKind { return KindSegments }

// RoutingControl is the routing engine's own layer. Its line is kept
// transparent because SegmentGroup draws the route.
type RoutingControl struct {
	RequestID string              `json:"request_id"`
	Waypoints []models.Coordinate `json:"waypoints"`
	Opacity   float64             `json:"opacity"`
	Weight    int                 `json:"weight"`
}

func (RoutingControl) Kind() LayerKind { return KindRoutingControl }

// GradientStop maps an intensity to a color.
type GradientStop struct {
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

// HeatLayer is a density visualization of accident samples.
type HeatLayer struct {
	Points   []models.HeatPoint `json:"points"`
	Radius   int                `json:"radius"`
	Blur     int                `json:"blur"`
	MaxZoom  int                `json:"max_zoom"`
	Gradient []GradientStop     `json:"gradient"`
}

func (HeatLayer) Kind() LayerKind { return KindHeat }
