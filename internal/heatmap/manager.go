// Package heatmap owns the accident-density overlay: a single fetch at
// startup and a show/hide toggle for the rest of the process lifetime.
package heatmap

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/mapview"
	"github.com/ukydev/safe-route/internal/models"
)

const LoadFailedStatus = "Could not load accident zones."

// Layer parameters of the density visualization.
const (
	Radius  = 20
	Blur    = 15
	MaxZoom = 12
)

// Gradient is the three-stop color ramp over the 0-1 intensity domain.
var Gradient = []mapview.GradientStop{
	{Stop: 0.4, Color: "blue"},
	{Stop: 0.65, Color: "lime"},
	{Stop: 1, Color: "red"},
}

// Fetcher downloads the accident samples.
type Fetcher interface {
	FetchAccidents(ctx context.Context) ([]models.HeatPoint, error)
}

// Manager builds the heat layer once and toggles its visibility.
type Manager struct {
	fetcher Fetcher
	surface mapview.Surface
	panel   mapview.Panel
	log     *logrus.Entry

	mu        sync.Mutex
	attempted bool
	layer     *mapview.HeatLayer
	layerID   mapview.LayerID
	visible   bool
}

// NewManager creates a manager that draws on surface and reports load
// failures on panel.
func NewManager(fetcher Fetcher, surface mapview.Surface, panel mapview.Panel) *Manager {
	return &Manager{
		fetcher: fetcher,
		surface: surface,
		panel:   panel,
		log:     logrus.WithField("component", "heatmap"),
	}
}

// Load fetches the samples and draws the layer visible. Only the first call
// does any work; later calls return nil. A failed fetch is reported on the
// panel and returned, and leaves the heatmap absent.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.attempted {
		m.mu.Unlock()
		return nil
	}
	m.attempted = true
	m.mu.Unlock()

	// The fetch runs unlocked so Toggle and Visible stay responsive.
	points, err := m.fetcher.FetchAccidents(ctx)
	if err != nil {
		m.log.WithError(err).Error("Heatmap fetch failed")
		m.panel.SetStatus(LoadFailedStatus)
		return err
	}
	layer := &mapview.HeatLayer{
		Points:   points,
		Radius:   Radius,
		Blur:     Blur,
		MaxZoom:  MaxZoom,
		Gradient: Gradient,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.layer = layer
	m.layerID = m.surface.AddLayer(*layer)
	m.visible = true
	m.log.WithField("points", len(points)).Info("Heatmap loaded")
	return nil
}

// Toggle shows a hidden heatmap or hides a visible one and returns the new
// visibility. Without a loaded layer it does nothing and returns false.
func (m *Manager) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.layer == nil {
		return false
	}
	if m.visible {
		m.surface.RemoveLayer(m.layerID)
	} else {
		m.layerID = m.surface.AddLayer(*m.layer)
	}
	m.visible = !m.visible
	return m.visible
}

// Visible reports whether the heat layer is drawn.
func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Loaded reports whether the layer was built.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layer != nil
}
