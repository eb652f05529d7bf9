package valhalla

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/domain"
)

const defaultColor = "#2a9e92"

var unpavedSurfaces = []string{"gravel", "dirt", "earth", "sand", "unpaved", "cobblestone"}

// surfaceStyle returns the paint colour and label of an edge.
func surfaceStyle(e traceEdge) (string, string) {
	surface := strings.ToLower(e.Surface)
	if surface == "" {
		surface = "paved"
	}
	use := strings.ToLower(e.Use)
	if use == "" {
		use = "road"
	}

	switch use {
	case "cycleway", "bicycle":
		return "#00E676", fmt.Sprintf("cycleway (%s)", surface)
	case "footway", "pedestrian", "path", "track", "steps":
		return "#FFC107", fmt.Sprintf("path (%s)", surface)
	}
	for _, s := range unpavedSurfaces {
		if strings.Contains(surface, s) {
			return "#FF9800", fmt.Sprintf("unpaved (%s)", surface)
		}
	}
	switch use {
	case "service", "residential", "living_street":
		return "#4FC3F7", fmt.Sprintf("%s (%s)", use, surface)
	case "primary", "secondary", "tertiary", "trunk":
		return "#00695C", fmt.Sprintf("main_road (%s)", surface)
	}
	return defaultColor, fmt.Sprintf("road (%s)", surface)
}

// surfaceParts cuts shape into runs of consecutive edges with the same style.
// Runs shorter than two coordinates are dropped.
func surfaceParts(shape orb.LineString, edges []traceEdge) []domain.SurfacePart {
	if len(edges) == 0 || len(shape) == 0 {
		return nil
	}

	var (
		parts   []domain.SurfacePart
		current domain.SurfacePart
	)
	current.Color, current.Surface = surfaceStyle(edges[0])

	flush := func() {
		if len(current.Geometry) >= 2 {
			parts = append(parts, current)
		}
	}

	last := len(shape) - 1
	for _, e := range edges {
		begin, end := e.BeginShapeIndex, e.EndShapeIndex
		if begin > last {
			continue
		}
		end = min(end, last)
		if begin >= end {
			end = min(last, begin+1)
		}
		coords := shape[begin : end+1]

		color, label := surfaceStyle(e)
		if (color != current.Color || label != current.Surface) && len(current.Geometry) > 0 {
			flush()
			current = domain.SurfacePart{Color: color, Surface: label}
		}

		if n := len(current.Geometry); n > 0 && current.Geometry[n-1] == coords[0] {
			coords = coords[1:]
		}
		current.Geometry = append(current.Geometry, coords...)
	}
	flush()

	return parts
}

// ascent sums positive elevation differences above 0.5 m, rounded.
func ascent(heights []float64) float64 {
	var total float64
	for i := 1; i < len(heights); i++ {
		if diff := heights[i] - heights[i-1]; diff > 0.5 {
			total += diff
		}
	}
	return math.Round(total)
}
