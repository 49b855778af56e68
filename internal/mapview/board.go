// Package mapview holds the display state a map client renders: layers,
// viewport, the status line and the busy state of the route trigger.
package mapview

import (
	"sort"
	"sync"
	"time"

	"github.com/ukydev/safe-route/internal/models"
)

const (
	ButtonIdle = "Find Safest Route"
	ButtonBusy = "Analyzing..."
)

// DefaultCenter is the initial viewport center (New Delhi).
var DefaultCenter = models.Coordinate{Lat: 28.6139, Lon: 77.2090}

const DefaultZoom = 12

// Surface is the map display.
type Surface interface {
	AddLayer(layer Layer) LayerID
	RemoveLayer(id LayerID)
	FitBounds(b Bounds)
}

// Panel is the control area: status text plus the trigger and loading indicator.
type Panel interface {
	SetStatus(msg string)
	SetBusy(busy bool)
}

// EventType tells listeners what changed.
type EventType string

const (
	EventStatus EventType = "status"
	EventBusy   EventType = "busy"
)

// Event is published on every status or busy change.
type Event struct {
	Type        EventType `json:"type"`
	Status      string    `json:"status"`
	Busy        bool      `json:"busy"`
	ButtonLabel string    `json:"button_label"`
	At          time.Time `json:"at"`
}

// LayerView is a layer as exposed in a snapshot.
type LayerView struct {
	ID    LayerID   `json:"id"`
	Kind  LayerKind `json:"kind"`
	Layer Layer     `json:"layer"`
}

// Snapshot is a point-in-time copy of the board.
type Snapshot struct {
	Status         string            `json:"status"`
	Busy           bool              `json:"busy"`
	TriggerEnabled bool              `json:"trigger_enabled"`
	ButtonLabel    string            `json:"button_label"`
	Center         models.Coordinate `json:"center"`
	Zoom           int               `json:"zoom"`
	Bounds         *Bounds           `json:"bounds,omitempty"`
	Layers         []LayerView       `json:"layers"`
}

// Board is an in-memory Surface and Panel. It is safe for concurrent use.
type Board struct {
	mu        sync.RWMutex
	nextID    LayerID
	layers    map[LayerID]Layer
	bounds    *Bounds
	status    string
	busy      bool
	listeners []func(Event)
}

// NewBoard creates an empty board centered on DefaultCenter.
func NewBoard() *Board {
	return &Board{layers: make(map[LayerID]Layer)}
}

// Subscribe registers fn for every status and busy change. fn runs
// synchronously and must not call back into the board.
func (b *Board) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *Board) AddLayer(layer Layer) LayerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.layers[b.nextID] = layer
	return b.nextID
}

func (b *Board) RemoveLayer(id LayerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.layers, id)
}

func (b *Board) FitBounds(bounds Bounds) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bounds = &bounds
}

func (b *Board) SetStatus(msg string) {
	b.mu.Lock()
	b.status = msg
	ev := b.eventLocked(EventStatus)
	listeners := b.listeners
	b.mu.Unlock()
	notify(listeners, ev)
}

func (b *Board) SetBusy(busy bool) {
	b.mu.Lock()
	b.busy = busy
	ev := b.eventLocked(EventBusy)
	listeners := b.listeners
	b.mu.Unlock()
	notify(listeners, ev)
}

func (b *Board) eventLocked(t EventType) Event {
	return Event{Type: t, Status: b.status, Busy: b.busy, ButtonLabel: buttonLabel(b.busy), At: time.Now()}
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

func buttonLabel(busy bool) string {
	if busy {
		return ButtonBusy
	}
	return ButtonIdle
}

// Status returns the current status line.
func (b *Board) Status() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Busy reports whether the trigger control is disabled.
func (b *Board) Busy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.busy
}

// Count returns how many layers of kind are currently drawn.
func (b *Board) Count(kind LayerKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, l := range b.layers {
		if l.Kind() == kind {
			n++
		}
	}
	return n
}

// Snapshot copies the board state, layers ordered by ID.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := Snapshot{
		Status:         b.status,
		Busy:           b.busy,
		TriggerEnabled: !b.busy,
		ButtonLabel:    buttonLabel(b.busy),
		Center:         DefaultCenter,
		Zoom:           DefaultZoom,
		Layers:         make([]LayerView, 0, len(b.layers)),
	}
	if b.bounds != nil {
		bounds := *b.bounds
		snap.Bounds = &bounds
	}
	for id, l := range b.layers {
		snap.Layers = append(snap.Layers, LayerView{ID: id, Kind: l.Kind(), Layer: l})
	}
	sort.Slice(snap.Layers, func(i, j int) bool { return snap.Layers[i].ID < snap.Layers[j].ID })
	return snap
}
