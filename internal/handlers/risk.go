package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/models"
	"github.com/ukydev/safe-route/internal/scoring"
)

// WaypointsRequest is the body of POST /api/find_safe_route.
type WaypointsRequest struct {
	Waypoints [][]float64 `json:"waypoints" validate:"required,min=2,dive,len=2"`
}

// ScoredRouteResponse is the wire form of a scored route: [lat, lon] pairs
// plus one score per segment.
type ScoredRouteResponse struct {
	Waypoints [][]float64 `json:"waypoints"`
	Scores    []float64   `json:"safety_scores"`
}

// RiskScorer is what the risk endpoints need from the scoring service.
type RiskScorer interface {
	HeatPoints() ([]models.HeatPoint, error)
	ScoreRoute(waypoints []models.Coordinate) (*models.ScoredRoute, error)
}

// RiskHandler serves accident samples and route scores. Errors use the
// {"error": "..."} body the risk API has always returned.
type RiskHandler struct {
	scorer   RiskScorer
	validate *validator.Validate
	log      *logrus.Entry
}

func NewRiskHandler(scorer RiskScorer) *RiskHandler {
	return &RiskHandler{
		scorer:   scorer,
		validate: validator.New(),
		log:      logrus.WithField("component", "handlers"),
	}
}

func riskError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// Accidents returns every sample as a [lat, lon, intensity] triple.
func (h *RiskHandler) Accidents(w http.ResponseWriter, r *http.Request) {
	points, err := h.scorer.HeatPoints()
	if err != nil {
		h.log.WithError(err).Error("Accident data unavailable")
		riskError(w, http.StatusInternalServerError, "Accident data not loaded on server.")
		return
	}
	respondWithJSON(w, http.StatusOK, points)
}

// FindSafeRoute scores each segment of the submitted path.
func (h *RiskHandler) FindSafeRoute(w http.ResponseWriter, r *http.Request) {
	var req WaypointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		riskError(w, http.StatusBadRequest, "Invalid waypoints data")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log.WithField("errors", validationMessages(err)).Debug("Rejected waypoints")
		riskError(w, http.StatusBadRequest, "Invalid waypoints data")
		return
	}

	waypoints := make([]models.Coordinate, len(req.Waypoints))
	for i, p := range req.Waypoints {
		waypoints[i] = models.Coordinate{Lat: p[0], Lon: p[1]}
	}
	route, err := h.scorer.ScoreRoute(waypoints)
	if err != nil {
		if errors.Is(err, scoring.ErrNotLoaded) {
			riskError(w, http.StatusInternalServerError, "Model or data not loaded")
			return
		}
		h.log.WithError(err).Error("Route scoring failed")
		riskError(w, http.StatusInternalServerError, "Route scoring failed")
		return
	}
	respondWithJSON(w, http.StatusOK, ScoredRouteResponse{
		Waypoints: models.Pairs(route.Waypoints),
		Scores:    route.Scores,
	})
}
