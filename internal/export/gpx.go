package export

import (
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"
)

const creator = "route-planner"

// WriteGPX renders one track with one segment, without timestamps.
func WriteGPX(w io.Writer, name string, points []TrackPoint) error {
	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(points))}
	for _, tp := range points {
		p := gpx.GPXPoint{Point: gpx.Point{Latitude: tp.Lat, Longitude: tp.Lng}}
		if tp.Elevation != nil {
			p.Elevation = *gpx.NewNullableFloat64(*tp.Elevation)
		}
		seg.Points = append(seg.Points, p)
	}

	doc := gpx.GPX{
		Creator: creator,
		Name:    name,
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{seg},
		}},
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("failed to render gpx: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write gpx: %w", err)
	}
	return nil
}
