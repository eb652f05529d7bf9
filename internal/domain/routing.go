package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Coordinate is a routing engine location.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RoutingProfile carries vehicle class and terrain/road preference weights.
type RoutingProfile struct {
	BicycleType string  `json:"bicycle_type"`
	UseHills    float64 `json:"use_hills"`
	UseRoads    float64 `json:"use_roads"`
}

// RouteRequest asks the routing engine for the path of a single segment.
type RouteRequest struct {
	Origin      Coordinate     `json:"origin"`
	Destination Coordinate     `json:"destination"`
	Profile     RoutingProfile `json:"profile"`
}

// RouteResult is a normalized routing engine response.
type RouteResult struct {
	Geometry     orb.LineString `json:"geometry"`
	Elevations   []float64      `json:"elevations,omitempty"`
	DistanceKm   float64        `json:"distance_km"`
	AscentM      float64        `json:"ascent_m"`
	SurfaceParts []SurfacePart  `json:"surface_parts,omitempty"`
}

// RouteRejectedError is returned when the routing engine rejects a request
// with a 4xx status, e.g. because no path exists. It must not be retried.
type RouteRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RouteRejectedError) Error() string {
	return fmt.Sprintf("route rejected (%d): %s", e.StatusCode, e.Reason)
}
