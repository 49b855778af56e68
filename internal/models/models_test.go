package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceError(t *testing.T) {
	withStatus := &ServiceError{Stage: "geocoding", StatusCode: 503}
	assert.Equal(t, "geocoding failed with status 503", withStatus.Error())
	assert.Nil(t, errors.Unwrap(withStatus))

	cause := errors.New("connection refused")
	withCause := &ServiceError{Stage: "backend analysis", Err: cause}
	assert.Equal(t, "backend analysis failed: connection refused", withCause.Error())
	assert.ErrorIs(t, withCause, cause)

	wrapped := error(withCause)
	var target *ServiceError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "backend analysis", target.Stage)
}

func TestMalformed(t *testing.T) {
	err := Malformed("routing", "route %d has %d points", 0, 1)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, "routing: malformed response: route 0 has 1 points", err.Error())
}

func TestHeatPoint_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]HeatPoint{{Lat: 28.6, Lon: 77.2, Intensity: 0.75}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[28.6,77.2,0.75]]`, string(data))
}

func TestCoordinatePairs(t *testing.T) {
	coords := []Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, Pairs(coords))

	a := Accident{Lat: 5, Lon: 6, Severity: 2}
	assert.Equal(t, Coordinate{Lat: 5, Lon: 6}, a.Coordinate())
}
