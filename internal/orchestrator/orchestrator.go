// Package orchestrator runs the route-safety pipeline: geocode both
// endpoints, route between them, score the route and draw it by risk.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/safe-route/internal/geocode"
	"github.com/ukydev/safe-route/internal/mapview"
	"github.com/ukydev/safe-route/internal/models"
	"github.com/ukydev/safe-route/internal/render"
	"github.com/ukydev/safe-route/internal/routing"
)

// Status lines shown on the panel.
const (
	StatusMissingInput = "Please enter both a 'From' and 'To' location."
	StatusFinding      = "Finding initial route..."
	StatusAnalyzing    = "Analyzing route safety..."
	StatusComplete     = "Analysis complete. Green indicates safer segments."
	statusErrorPrefix  = "Error: "
)

// DefaultTimeout bounds a whole invocation so the trigger is never left disabled.
const DefaultTimeout = 30 * time.Second

// Scorer assigns risk scores to the segments of a path.
type Scorer interface {
	ScoreRoute(ctx context.Context, waypoints []models.Coordinate) (*models.ScoredRoute, error)
}

// Config wires the orchestrator to its collaborators.
type Config struct {
	Geocoder geocode.Geocoder
	Engine   routing.Engine
	Scorer   Scorer
	Surface  mapview.Surface
	Panel    mapview.Panel
	Timeout  time.Duration
}

// Result describes a completed analysis.
type Result struct {
	InvocationID string              `json:"invocation_id"`
	Start        models.Candidate    `json:"start"`
	End          models.Candidate    `json:"end"`
	Route        routing.Route       `json:"route"`
	Waypoints    []models.Coordinate `json:"waypoints"`
	Segments     []render.Segment    `json:"segments"`
	Bounds       mapview.Bounds      `json:"bounds"`
}

// session is the set of layers drawn by one invocation.
type session struct {
	id     string
	layers []mapview.LayerID
}

// Orchestrator owns the live overlay session and the busy state.
// At most one invocation runs at a time.
type Orchestrator struct {
	geocoder geocode.Geocoder
	engine   routing.Engine
	scorer   Scorer
	surface  mapview.Surface
	panel    mapview.Panel
	timeout  time.Duration
	newID    func() string
	log      *logrus.Entry

	mu      sync.Mutex
	busy    bool
	session *session
}

// New creates an orchestrator. A zero Timeout uses DefaultTimeout; a negative
// one disables the deadline.
func New(cfg Config) *Orchestrator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		geocoder: cfg.Geocoder,
		engine:   cfg.Engine,
		scorer:   cfg.Scorer,
		surface:  cfg.Surface,
		panel:    cfg.Panel,
		timeout:  timeout,
		newID:    uuid.NewString,
		log:      logrus.WithField("component", "orchestrator"),
	}
}

// Busy reports whether an invocation is in progress.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// FindAndAnalyzeRoute runs the full pipeline for two location queries. Every
// outcome is also reported on the panel, and the panel is always left idle.
func (o *Orchestrator) FindAndAnalyzeRoute(ctx context.Context, startQuery, endQuery string) (res *Result, err error) {
	// A running invocation owns the panel; nothing may overwrite its status.
	if o.Busy() {
		return nil, models.ErrBusy
	}
	startQuery = strings.TrimSpace(startQuery)
	endQuery = strings.TrimSpace(endQuery)
	if startQuery == "" || endQuery == "" {
		o.panel.SetStatus(StatusForError(models.ErrMissingInput))
		return nil, models.ErrMissingInput
	}
	if !o.enter() {
		return nil, models.ErrBusy
	}
	defer o.exit()

	id := o.newID()
	logger := o.log.WithFields(logrus.Fields{"invocation_id": id, "start": startQuery, "end": endQuery})
	defer func() {
		if p := recover(); p != nil {
			logger.WithField("panic", p).Error("Route analysis panicked")
			res, err = nil, fmt.Errorf("internal error: %v", p)
			o.panel.SetStatus(StatusForError(err))
		}
	}()

	o.panel.SetStatus(StatusFinding)
	sess := o.replaceSession(id)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	started := time.Now()
	res, err = o.run(ctx, sess, startQuery, endQuery)
	if err != nil {
		logger.WithError(err).Warn("Route analysis failed")
		o.panel.SetStatus(StatusForError(err))
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"segments": len(res.Segments),
		"elapsed":  time.Since(started),
	}).Info("Route analysis complete")
	o.panel.SetStatus(StatusComplete)
	return res, nil
}

// StatusForError returns the status line reported for a failed invocation.
// ErrBusy has no panel line of its own and is described by its message.
func StatusForError(err error) string {
	switch {
	case errors.Is(err, models.ErrMissingInput):
		return StatusMissingInput
	case errors.Is(err, models.ErrBusy):
		return err.Error()
	}
	return statusErrorPrefix + err.Error()
}

func (o *Orchestrator) enter() bool {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return false
	}
	o.busy = true
	o.mu.Unlock()
	o.panel.SetBusy(true)
	return true
}

func (o *Orchestrator) exit() {
	o.panel.SetBusy(false)
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// replaceSession removes every layer of the previous session and starts a new,
// empty one.
func (o *Orchestrator) replaceSession(id string) *session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		for _, layer := range o.session.layers {
			o.surface.RemoveLayer(layer)
		}
	}
	o.session = &session{id: id}
	return o.session
}

func (o *Orchestrator) draw(sess *session, layer mapview.Layer) {
	id := o.surface.AddLayer(layer)
	o.mu.Lock()
	sess.layers = append(sess.layers, id)
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, sess *session, startQuery, endQuery string) (*Result, error) {
	from, to, err := o.resolve(ctx, startQuery, endQuery)
	if err != nil {
		return nil, err
	}
	o.draw(sess, mapview.Marker{Position: from.Coordinate, Label: "Start", PopupOpen: true})
	o.draw(sess, mapview.Marker{Position: to.Coordinate, Label: "End"})
	o.draw(sess, mapview.RoutingControl{
		RequestID: sess.id,
		Waypoints: []models.Coordinate{from.Coordinate, to.Coordinate},
	})

	route, err := o.awaitRoute(ctx, sess.id, from.Coordinate, to.Coordinate)
	if err != nil {
		return nil, err
	}

	o.panel.SetStatus(StatusAnalyzing)
	scored, err := o.scorer.ScoreRoute(ctx, route.Coordinates)
	if err != nil {
		return nil, err
	}
	if d := render.Mismatch(scored.Waypoints, scored.Scores); d != 0 {
		o.log.WithFields(logrus.Fields{
			"invocation_id": sess.id,
			"waypoints":     len(scored.Waypoints),
			"scores":        len(scored.Scores),
		}).Warn("Score count does not match segment count, truncating")
	}
	segments := render.Segments(scored.Waypoints, scored.Scores)
	o.draw(sess, mapview.SegmentGroup{Segments: segments})

	bounds, ok := mapview.BoundsOf(route.Coordinates)
	if ok {
		o.surface.FitBounds(bounds)
	}

	return &Result{
		InvocationID: sess.id,
		Start:        from,
		End:          to,
		Route:        route,
		Waypoints:    scored.Waypoints,
		Segments:     segments,
		Bounds:       bounds,
	}, nil
}

// resolve geocodes both queries in parallel and picks the first candidate of each.
func (o *Orchestrator) resolve(ctx context.Context, startQuery, endQuery string) (from, to models.Candidate, err error) {
	var starts, ends []models.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		starts, err = o.geocoder.Geocode(gctx, startQuery)
		return err
	})
	g.Go(func() error {
		var err error
		ends, err = o.geocoder.Geocode(gctx, endQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return from, to, err
	}
	if len(starts) == 0 || len(ends) == 0 {
		return from, to, models.ErrLocationNotFound
	}
	return starts[0], ends[0], nil
}

// awaitRoute issues the routing request and waits for its completion event.
// The event channel belongs to this request alone.
func (o *Orchestrator) awaitRoute(ctx context.Context, id string, from, to models.Coordinate) (routing.Route, error) {
	events := o.engine.Request(ctx, id, from, to)
	select {
	case ev, ok := <-events:
		if !ok {
			return routing.Route{}, models.Malformed("routing", "no completion event")
		}
		if ev.RequestID != id {
			return routing.Route{}, models.Malformed("routing", "event for request %s", ev.RequestID)
		}
		if ev.Err != nil {
			return routing.Route{}, ev.Err
		}
		if len(ev.Routes) == 0 {
			return routing.Route{}, models.ErrNoRoute
		}
		return ev.Routes[0], nil
	case <-ctx.Done():
		return routing.Route{}, fmt.Errorf("routing: %w", ctx.Err())
	}
}
