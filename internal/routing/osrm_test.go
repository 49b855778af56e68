package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/safe-route/internal/models"
)

func waitEvent(t *testing.T, ch <-chan RoutesFound) RoutesFound {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed without an event")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no routing event delivered")
	}
	return RoutesFound{}
}

func TestOSRM_Request(t *testing.T) {
	start := models.Coordinate{Lat: 28.61, Lon: 77.20}
	end := models.Coordinate{Lat: 28.65, Lon: 77.25}

	t.Run("converts lon/lat geometry and keeps order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/driving/77.200000,28.610000;77.250000,28.650000"))
			assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
			w.Write([]byte(`{"code":"Ok","routes":[
				{"distance":1200,"duration":300,"geometry":{"coordinates":[[77.20,28.61],[77.22,28.63],[77.25,28.65]]}},
				{"distance":1500,"duration":360,"geometry":{"coordinates":[[77.20,28.61],[77.25,28.65]]}}
			]}`))
		}))
		defer server.Close()

		engine := NewOSRM(server.URL+"/", "", server.Client())
		ch := engine.Request(context.Background(), "req-1", start, end)
		ev := waitEvent(t, ch)

		require.NoError(t, ev.Err)
		assert.Equal(t, "req-1", ev.RequestID)
		require.Len(t, ev.Routes, 2)
		assert.Equal(t, models.RoutePath{
			{Lat: 28.61, Lon: 77.20},
			{Lat: 28.63, Lon: 77.22},
			{Lat: 28.65, Lon: 77.25},
		}, ev.Routes[0].Coordinates)
		assert.Equal(t, 1200.0, ev.Routes[0].DistanceM)

		_, open := <-ch
		assert.False(t, open, "channel must be closed after the single event")
	})

	t.Run("NoRoute code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":"NoRoute","message":"Impossible route"}`))
		}))
		defer server.Close()

		ev := waitEvent(t, NewOSRM(server.URL, "driving", nil).Request(context.Background(), "r", start, end))
		assert.ErrorIs(t, ev.Err, models.ErrNoRoute)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ev := waitEvent(t, NewOSRM(server.URL, "driving", nil).Request(context.Background(), "r", start, end))
		var svcErr *models.ServiceError
		require.True(t, errors.As(ev.Err, &svcErr))
		assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	})

	t.Run("degenerate geometry is malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"coordinates":[[77.2,28.6]]}}]}`))
		}))
		defer server.Close()

		ev := waitEvent(t, NewOSRM(server.URL, "driving", nil).Request(context.Background(), "r", start, end))
		assert.ErrorIs(t, ev.Err, models.ErrMalformedResponse)
	})

	t.Run("cancelled context still delivers an event", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		ch := NewOSRM(server.URL, "driving", nil).Request(ctx, "r", start, end)
		cancel()
		ev := waitEvent(t, ch)
		assert.Error(t, ev.Err)
	})
}
