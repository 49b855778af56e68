package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/models"
)

const (
	scoreStage    = "backend analysis"
	accidentStage = "accident data"
)

// Client calls the risk-scoring backend.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *logrus.Entry
}

// NewClient creates a client for the backend at baseURL. authToken, when set,
// is sent as a bearer token.
func NewClient(baseURL, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      httpClient,
		log:       logrus.WithField("component", "risk_client"),
	}
}

type scoreRequest struct {
	Waypoints [][]float64 `json:"waypoints"`
}

type scoreResponse struct {
	Waypoints *[][]float64 `json:"waypoints"`
	Scores    *[]float64   `json:"safety_scores"`
}

// ScoreRoute submits waypoints in travel order and returns the backend's
// waypoints with their per-segment scores.
func (c *Client) ScoreRoute(ctx context.Context, waypoints []models.Coordinate) (*models.ScoredRoute, error) {
	data, err := json.Marshal(scoreRequest{Waypoints: models.Pairs(waypoints)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal waypoints: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/find_safe_route", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, scoreStage)
	if err != nil {
		return nil, err
	}

	var obj scoreResponse
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, models.Malformed(scoreStage, "%v", err)
	}
	if obj.Waypoints == nil {
		return nil, models.Malformed(scoreStage, "missing waypoints")
	}
	if obj.Scores == nil {
		return nil, models.Malformed(scoreStage, "missing safety_scores")
	}
	out := &models.ScoredRoute{
		Waypoints: make([]models.Coordinate, 0, len(*obj.Waypoints)),
		Scores:    *obj.Scores,
	}
	for i, p := range *obj.Waypoints {
		if len(p) != 2 {
			return nil, models.Malformed(scoreStage, "waypoint %d has %d values", i, len(p))
		}
		out.Waypoints = append(out.Waypoints, models.Coordinate{Lat: p[0], Lon: p[1]})
	}
	c.log.WithFields(logrus.Fields{
		"submitted": len(waypoints),
		"returned":  len(out.Waypoints),
		"scores":    len(out.Scores),
	}).Debug("Route scored")
	return out, nil
}

// FetchAccidents downloads the heatmap samples.
func (c *Client) FetchAccidents(ctx context.Context) ([]models.HeatPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/accidents", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, accidentStage)
	if err != nil {
		return nil, err
	}

	var triples [][]float64
	if err := json.Unmarshal(body, &triples); err != nil {
		return nil, models.Malformed(accidentStage, "%v", err)
	}
	points := make([]models.HeatPoint, 0, len(triples))
	for i, t := range triples {
		if len(t) != 3 {
			return nil, models.Malformed(accidentStage, "sample %d has %d values", i, len(t))
		}
		points = append(points, models.HeatPoint{Lat: t[0], Lon: t[1], Intensity: t[2]})
	}
	return points, nil
}

func (c *Client) do(req *http.Request, stage string) ([]byte, error) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.ServiceError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.ServiceError{Stage: stage, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ServiceError{Stage: stage, Err: err}
	}
	return body, nil
}
