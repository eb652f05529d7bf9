// Package export renders a finished route graph: track files (GPX, KML),
// a GeoJSON display layer and summary totals.
package export

import (
	"fmt"
	"io"

	"github.com/route-planner/internal/domain"
)

// Format of an exported track file
type Format string

const (
	FormatGPX Format = "gpx"
	FormatKML Format = "kml"
)

// ParseFormat проверяет формат экспорта, пустая строка означает GPX
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatGPX:
		return FormatGPX, nil
	case FormatKML:
		return FormatKML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatKML {
		return "application/vnd.google-earth.kml+xml"
	}
	return "application/gpx+xml"
}

// TrackPoint is one vertex of the flattened route
type TrackPoint struct {
	Lat       float64
	Lng       float64
	Elevation *float64
}

// Flatten concatenates segment geometries of all sections in section order.
// A vertex repeating the previous one (the shared end of two segments) is
// emitted once. A route without segments yields its points.
func Flatten(sections []domain.Section) []TrackPoint {
	var out []TrackPoint
	for _, sec := range sections {
		out = appendSegments(out, sec.Segments)
	}
	if len(out) > 0 {
		return out
	}

	for _, sec := range sections {
		for _, pt := range sec.Points {
			out = append(out, TrackPoint{Lat: pt.Lat, Lng: pt.Lng})
		}
	}
	return out
}

// FlattenSection is Flatten restricted to one section, its bridge included.
func FlattenSection(sections []domain.Section, idx int) ([]TrackPoint, error) {
	if idx < 0 || idx >= len(sections) {
		return nil, fmt.Errorf("section %d out of range", idx)
	}
	return Flatten(sections[idx : idx+1]), nil
}

func appendSegments(out []TrackPoint, segments []domain.Segment) []TrackPoint {
	for _, seg := range segments {
		withElevation := seg.HasElevations()
		for i, c := range seg.Geometry {
			if n := len(out); n > 0 && out[n-1].Lng == c[0] && out[n-1].Lat == c[1] {
				continue
			}
			tp := TrackPoint{Lat: c[1], Lng: c[0]}
			if withElevation {
				e := seg.Elevations[i]
				tp.Elevation = &e
			}
			out = append(out, tp)
		}
	}
	return out
}

// Totals sums distance and ascent over all segments
func Totals(sections []domain.Section) (distanceKm, ascentM float64) {
	for _, sec := range sections {
		distanceKm += sec.DistanceKm()
		ascentM += sec.AscentM()
	}
	return distanceKm, ascentM
}

// Write renders points as a track file in the given format
func Write(w io.Writer, format Format, name string, points []TrackPoint) error {
	switch format {
	case FormatGPX:
		return WriteGPX(w, name, points)
	case FormatKML:
		return WriteKML(w, name, points)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
