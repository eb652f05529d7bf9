package valhalla

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/metrics"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
)

// Valhalla encodes shapes with six decimal digits
var shapeCodec = polyline.Codec{Dim: 2, Scale: 1e6}

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type bicycleCosting struct {
	BicycleType string  `json:"bicycle_type,omitempty"`
	UseHills    float64 `json:"use_hills"`
	UseRoads    float64 `json:"use_roads"`
}

type routeRequest struct {
	Locations         []location                `json:"locations"`
	Costing           string                    `json:"costing"`
	CostingOptions    map[string]bicycleCosting `json:"costing_options"`
	DirectionsOptions struct {
		Units string `json:"units"`
	} `json:"directions_options"`
}

type routeResponse struct {
	Trip struct {
		Legs []struct {
			Shape string `json:"shape"`
		} `json:"legs"`
		Summary struct {
			Length float64 `json:"length"`
			Time   float64 `json:"time"`
		} `json:"summary"`
	} `json:"trip"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

type traceRequest struct {
	Shape      []location `json:"shape"`
	Costing    string     `json:"costing"`
	ShapeMatch string     `json:"shape_match"`
	Filters    struct {
		Attributes []string `json:"attributes"`
		Action     string   `json:"action"`
	} `json:"filters"`
}

type traceEdge struct {
	Use             string `json:"use"`
	Surface         string `json:"surface"`
	BeginShapeIndex int    `json:"begin_shape_index"`
	EndShapeIndex   int    `json:"end_shape_index"`
}

type traceResponse struct {
	Shape string      `json:"shape"`
	Edges []traceEdge `json:"edges"`
}

type heightRequest struct {
	Range bool       `json:"range"`
	Shape []location `json:"shape"`
}

type heightResponse struct {
	Height []*float64 `json:"height"`
}

// statusError - ответ движка с кодом, отличным от 200
type statusError struct {
	StatusCode int
	Body       []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("valhalla API error: status %d, body: %s", e.StatusCode, string(e.Body))
}

type client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewValhallaClient создает клиент движка маршрутизации Valhalla
func NewValhallaClient(cfg *config.ValhallaConfig, logger *zap.Logger) repository.RoutingRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// Route строит велосипедный маршрут между двумя точками. Поверхности и
// высоты запрашиваются дополнительно; их ошибки не ломают маршрут.
func (c *client) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	start := time.Now()
	defer func() {
		metrics.RoutingDuration.Observe(time.Since(start).Seconds())
	}()

	shape, distance, err := c.route(ctx, req)
	if err != nil {
		var rejected *domain.RouteRejectedError
		if errors.As(err, &rejected) {
			metrics.RoutingRequests.WithLabelValues("rejected").Inc()
		} else {
			metrics.RoutingRequests.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	metrics.RoutingRequests.WithLabelValues("ok").Inc()

	result := &domain.RouteResult{
		Geometry:   shape,
		DistanceKm: distance,
	}

	matched, edges, err := c.traceAttributes(ctx, shape)
	if err != nil {
		c.logger.Warn("Valhalla trace_attributes failed", zap.Error(err))
	} else {
		if len(matched) >= 2 {
			result.Geometry = matched
		}
		result.SurfaceParts = surfaceParts(result.Geometry, edges)
	}

	heights, err := c.height(ctx, result.Geometry)
	if err != nil {
		c.logger.Warn("Valhalla height failed", zap.Error(err))
	} else if len(heights) == len(result.Geometry) {
		result.Elevations = heights
		result.AscentM = ascent(heights)
	}

	c.logger.Debug("Valhalla route built",
		zap.Float64("distance_km", result.DistanceKm),
		zap.Float64("ascent_m", result.AscentM),
		zap.Int("points", len(result.Geometry)),
		zap.Int("surface_parts", len(result.SurfaceParts)))

	return result, nil
}

func (c *client) route(ctx context.Context, req domain.RouteRequest) (orb.LineString, float64, error) {
	body := routeRequest{
		Locations: []location{
			{Lat: req.Origin.Lat, Lon: req.Origin.Lon},
			{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
		},
		Costing: "bicycle",
		CostingOptions: map[string]bicycleCosting{
			"bicycle": {
				BicycleType: req.Profile.BicycleType,
				UseHills:    req.Profile.UseHills,
				UseRoads:    req.Profile.UseRoads,
			},
		},
	}
	body.DirectionsOptions.Units = "km"

	var resp routeResponse
	if err := c.post(ctx, "/route", body, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return nil, 0, &domain.RouteRejectedError{StatusCode: se.StatusCode, Reason: rejectionReason(se.Body)}
		}
		return nil, 0, err
	}

	if len(resp.Trip.Legs) == 0 {
		return nil, 0, &domain.RouteRejectedError{StatusCode: http.StatusNotFound, Reason: "No legs found"}
	}

	var shape orb.LineString
	for _, leg := range resp.Trip.Legs {
		coords, err := decodeShape(leg.Shape)
		if err != nil {
			return nil, 0, err
		}
		if n := len(shape); n > 0 && len(coords) > 0 && shape[n-1] == coords[0] {
			coords = coords[1:]
		}
		shape = append(shape, coords...)
	}
	if len(shape) == 0 {
		return nil, 0, fmt.Errorf("valhalla returned an empty shape")
	}

	return shape, resp.Trip.Summary.Length, nil
}

func (c *client) traceAttributes(ctx context.Context, shape orb.LineString) (orb.LineString, []traceEdge, error) {
	body := traceRequest{
		Shape:      toLocations(shape),
		Costing:    "bicycle",
		ShapeMatch: "map_snap",
	}
	body.Filters.Attributes = []string{"edge.use", "edge.surface", "edge.begin_shape_index", "edge.end_shape_index"}
	body.Filters.Action = "include"

	var resp traceResponse
	if err := c.post(ctx, "/trace_attributes", body, &resp); err != nil {
		return nil, nil, err
	}

	var matched orb.LineString
	if resp.Shape != "" {
		var err error
		if matched, err = decodeShape(resp.Shape); err != nil {
			return nil, nil, err
		}
	}
	return matched, resp.Edges, nil
}

func (c *client) height(ctx context.Context, shape orb.LineString) ([]float64, error) {
	var resp heightResponse
	if err := c.post(ctx, "/height", heightRequest{Shape: toLocations(shape)}, &resp); err != nil {
		return nil, err
	}

	heights := make([]float64, len(resp.Height))
	for i, h := range resp.Height {
		if h != nil {
			heights[i] = *h
		}
	}
	return heights, nil
}

func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	c.logger.Debug("Calling Valhalla API", zap.String("path", path), zap.Int("bytes", len(payload)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Debug("Valhalla API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(data)))
		return &statusError{StatusCode: resp.StatusCode, Body: data}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func rejectionReason(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func decodeShape(shape string) (orb.LineString, error) {
	coords, _, err := shapeCodec.DecodeCoords([]byte(shape))
	if err != nil {
		return nil, fmt.Errorf("failed to decode shape: %w", err)
	}

	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c[1], c[0]})
	}
	return ls, nil
}

// EncodeShape encodes a line as a Valhalla precision-6 polyline.
func EncodeShape(ls orb.LineString) string {
	coords := make([][]float64, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, []float64{p[1], p[0]})
	}
	return string(shapeCodec.EncodeCoords(nil, coords))
}

func toLocations(ls orb.LineString) []location {
	out := make([]location, 0, len(ls))
	for _, p := range ls {
		out = append(out, location{Lat: p[1], Lon: p[0]})
	}
	return out
}
