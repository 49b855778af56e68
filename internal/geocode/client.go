package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/models"
)

const stage = "geocoding"

// Geocoder resolves free text to coordinate candidates. An empty result with a
// nil error means the service found no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]models.Candidate, error)
}

// Client talks to a Nominatim-compatible search endpoint.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	log       *logrus.Entry
}

// NewClient creates a geocoding client for endpoint, e.g. https://nominatim.openstreetmap.org/search.
func NewClient(endpoint, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      httpClient,
		log:       logrus.WithField("component", "geocoder"),
	}
}

// place mirrors one element of the search response.
type place struct {
	Lat         *flexFloat `json:"lat"`
	Lon         *flexFloat `json:"lon"`
	DisplayName string     `json:"display_name"`
	Class       string     `json:"class"`
	Type        string     `json:"type"`
	Importance  float64    `json:"importance"`
}

// Geocode returns every candidate in the order the service ranked them.
func (c *Client) Geocode(ctx context.Context, query string) ([]models.Candidate, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid geocode endpoint: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

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

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, models.Malformed(stage, "%v", err)
	}
	candidates := make([]models.Candidate, 0, len(places))
	for i, p := range places {
		if p.Lat == nil || p.Lon == nil {
			return nil, models.Malformed(stage, "result %d has no lat/lon", i)
		}
		candidates = append(candidates, models.Candidate{
			Coordinate:  models.Coordinate{Lat: float64(*p.Lat), Lon: float64(*p.Lon)},
			DisplayName: p.DisplayName,
			Class:       p.Class,
			Type:        p.Type,
			Importance:  p.Importance,
		})
	}
	c.log.WithFields(logrus.Fields{"query": query, "candidates": len(candidates)}).Debug("Geocoded query")
	return candidates, nil
}

// flexFloat accepts both "51.5" and 51.5.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
