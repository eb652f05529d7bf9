package valhalla

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testShape = orb.LineString{
	{2.1734, 41.3851},
	{2.1750, 41.3860},
	{2.1780, 41.3875},
	{2.1800, 41.3900},
}

func testRequest() domain.RouteRequest {
	return domain.RouteRequest{
		Origin:      domain.Coordinate{Lat: 41.3851, Lon: 2.1734},
		Destination: domain.Coordinate{Lat: 41.3900, Lon: 2.1800},
		Profile:     domain.RoutingProfile{BicycleType: "Road", UseHills: 0.5, UseRoads: 0.5},
	}
}

func newTestClient(url string) *client {
	cfg := &config.ValhallaConfig{BaseURL: url, RequestTimeout: 5 * time.Second}
	return NewValhallaClient(cfg, zap.NewNop()).(*client)
}

// valhallaServer serves /route, /trace_attributes and /height; a nil handler
// answers 500.
func valhallaServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		h, ok := handlers[r.URL.Path]
		if !ok || h == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func routeHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req routeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bicycle", req.Costing)
		assert.Len(t, req.Locations, 2)
		assert.Equal(t, "Road", req.CostingOptions["bicycle"].BicycleType)
		assert.Equal(t, 0.5, req.CostingOptions["bicycle"].UseHills)

		var resp routeResponse
		resp.Trip.Legs = append(resp.Trip.Legs, struct {
			Shape string `json:"shape"`
		}{Shape: EncodeShape(testShape)})
		resp.Trip.Summary.Length = 0.82
		writeJSON(w, resp)
	}
}

func TestClient_Route(t *testing.T) {
	t.Run("successful request with surfaces and heights", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{
			"/route": routeHandler(t),
			"/trace_attributes": func(w http.ResponseWriter, r *http.Request) {
				var req traceRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "map_snap", req.ShapeMatch)
				assert.Len(t, req.Shape, len(testShape))

				writeJSON(w, traceResponse{
					Shape: EncodeShape(testShape),
					Edges: []traceEdge{
						{Use: "cycleway", Surface: "paved", BeginShapeIndex: 0, EndShapeIndex: 1},
						{Use: "cycleway", Surface: "paved", BeginShapeIndex: 1, EndShapeIndex: 2},
						{Use: "road", Surface: "gravel", BeginShapeIndex: 2, EndShapeIndex: 3},
					},
				})
			},
			"/height": func(w http.ResponseWriter, r *http.Request) {
				var req heightRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.False(t, req.Range)
				writeJSON(w, map[string]interface{}{"height": []interface{}{10.0, 12.0, nil, 15.0}})
			},
		})

		result, err := newTestClient(server.URL).Route(context.Background(), testRequest())
		require.NoError(t, err)

		require.Len(t, result.Geometry, len(testShape))
		assert.InDelta(t, testShape[0][0], result.Geometry[0][0], 1e-6)
		assert.InDelta(t, testShape[0][1], result.Geometry[0][1], 1e-6)
		assert.Equal(t, 0.82, result.DistanceKm)

		assert.Equal(t, []float64{10, 12, 0, 15}, result.Elevations)
		assert.Equal(t, 17.0, result.AscentM)

		require.Len(t, result.SurfaceParts, 2)
		assert.Equal(t, "#00E676", result.SurfaceParts[0].Color)
		assert.Equal(t, "cycleway (paved)", result.SurfaceParts[0].Surface)
		assert.Len(t, result.SurfaceParts[0].Geometry, 3)
		assert.Equal(t, "#FF9800", result.SurfaceParts[1].Color)
		assert.Len(t, result.SurfaceParts[1].Geometry, 2)
	})

	t.Run("bad request is a rejection", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{
			"/route": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				writeJSON(w, errorResponse{Error: "No path could be found for input", ErrorCode: 442})
			},
		})

		result, err := newTestClient(server.URL).Route(context.Background(), testRequest())
		require.Error(t, err)
		assert.Nil(t, result)

		var rejected *domain.RouteRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
		assert.Equal(t, "No path could be found for input", rejected.Reason)
	})

	t.Run("server error is transient", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{})

		_, err := newTestClient(server.URL).Route(context.Background(), testRequest())
		require.Error(t, err)

		var rejected *domain.RouteRejectedError
		assert.False(t, errors.As(err, &rejected))
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("trace and height failures degrade gracefully", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{
			"/route": routeHandler(t),
		})

		result, err := newTestClient(server.URL).Route(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Len(t, result.Geometry, len(testShape))
		assert.Empty(t, result.SurfaceParts)
		assert.Empty(t, result.Elevations)
		assert.Zero(t, result.AscentM)
	})

	t.Run("height with wrong length is ignored", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{
			"/route": routeHandler(t),
			"/height": func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]interface{}{"height": []float64{1, 2}})
			},
		})

		result, err := newTestClient(server.URL).Route(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Empty(t, result.Elevations)
	})

	t.Run("context cancelled", func(t *testing.T) {
		server := valhallaServer(t, map[string]http.HandlerFunc{
			"/route": routeHandler(t),
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(server.URL).Route(ctx, testRequest())
		require.Error(t, err)
	})
}

func TestDecodeShape(t *testing.T) {
	ls, err := decodeShape(EncodeShape(testShape))
	require.NoError(t, err)
	require.Len(t, ls, len(testShape))
	for i := range testShape {
		assert.InDelta(t, testShape[i][0], ls[i][0], 1e-6)
		assert.InDelta(t, testShape[i][1], ls[i][1], 1e-6)
	}

	_, err = decodeShape("\xff")
	assert.Error(t, err)
}
