package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/models"
)

const stage = "routing"

// OSRM requests driving routes from an OSRM HTTP server.
type OSRM struct {
	baseURL string
	profile string
	http    *http.Client
	log     *logrus.Entry
}

// NewOSRM creates an engine for baseURL, e.g. https://router.project-osrm.org.
func NewOSRM(baseURL, profile string, httpClient *http.Client) *OSRM {
	if profile == "" {
		profile = "driving"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		http:    httpClient,
		log:     logrus.WithField("component", "routing"),
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Request implements Engine.
func (o *OSRM) Request(ctx context.Context, requestID string, start, end models.Coordinate) <-chan RoutesFound {
	out := make(chan RoutesFound, 1)
	go func() {
		defer close(out)
		routes, err := o.fetch(ctx, start, end)
		if err != nil {
			o.log.WithError(err).WithField("request_id", requestID).Warn("Routing request failed")
		}
		out <- RoutesFound{RequestID: requestID, Routes: routes, Err: err}
	}()
	return out
}

func (o *OSRM) fetch(ctx context.Context, start, end models.Coordinate) ([]Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		o.baseURL, o.profile, start.Lon, start.Lat, end.Lon, end.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return nil, &models.ServiceError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ServiceError{Stage: stage, Err: err}
	}

	var obj osrmResponse
	if err := json.Unmarshal(body, &obj); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &models.ServiceError{Stage: stage, StatusCode: resp.StatusCode}
		}
		return nil, models.Malformed(stage, "%v", err)
	}
	// OSRM answers 400 with code NoRoute when the endpoints are not connected.
	if obj.Code == "NoRoute" {
		return nil, models.ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.ServiceError{Stage: stage, StatusCode: resp.StatusCode}
	}
	if len(obj.Routes) == 0 {
		return nil, models.ErrNoRoute
	}

	routes := make([]Route, 0, len(obj.Routes))
	for i, r := range obj.Routes {
		coords := r.Geometry.Coordinates
		if len(coords) < 2 {
			return nil, models.Malformed(stage, "route %d has %d coordinates", i, len(coords))
		}
		pts := make(models.RoutePath, 0, len(coords))
		for _, c := range coords {
			if len(c) < 2 {
				return nil, models.Malformed(stage, "route %d has a short coordinate", i)
			}
			pts = append(pts, models.Coordinate{Lat: c[1], Lon: c[0]})
		}
		routes = append(routes, Route{Coordinates: pts, DistanceM: r.Distance, DurationS: r.Duration})
	}
	return routes, nil
}
