package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/db"
	"github.com/ukydev/safe-route/internal/models"
)

// ErrNotLoaded is returned before the accident samples have been loaded.
var ErrNotLoaded = errors.New("accident data not loaded")

// Service serves scores and heat points from the samples of a store.
type Service struct {
	store db.AccidentStore
	opts  Options
	log   *logrus.Entry

	mu    sync.RWMutex
	index *Index
}

func NewService(store db.AccidentStore, opts Options) *Service {
	return &Service{
		store: store,
		opts:  opts.withDefaults(),
		log:   logrus.WithField("component", "scoring"),
	}
}

// Reload reads the store and swaps in a new index.
func (s *Service) Reload(ctx context.Context) error {
	started := time.Now()
	accidents, err := s.store.LoadAccidents(ctx)
	if err != nil {
		return fmt.Errorf("load accidents: %w", err)
	}
	idx := NewIndex(accidents, s.opts)

	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"accidents": idx.Len(),
		"cells":     len(idx.cells),
		"elapsed":   time.Since(started),
	}).Info("Accident index loaded")
	return nil
}

func (s *Service) current() (*Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, ErrNotLoaded
	}
	return s.index, nil
}

// Loaded reports whether an index is available.
func (s *Service) Loaded() bool {
	_, err := s.current()
	return err == nil
}

func (s *Service) HeatPoints() ([]models.HeatPoint, error) {
	idx, err := s.current()
	if err != nil {
		return nil, err
	}
	return idx.HeatPoints(), nil
}

func (s *Service) ScoreRoute(waypoints []models.Coordinate) (*models.ScoredRoute, error) {
	idx, err := s.current()
	if err != nil {
		return nil, err
	}
	return idx.ScoreRoute(waypoints), nil
}
