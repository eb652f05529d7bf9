package export

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"
)

// WriteKML renders the track as a single clamped-to-ground LineString.
func WriteKML(w io.Writer, name string, points []TrackPoint) error {
	coords := make([]kml.Coordinate, 0, len(points))
	for _, tp := range points {
		c := kml.Coordinate{Lon: tp.Lng, Lat: tp.Lat}
		if tp.Elevation != nil {
			c.Alt = *tp.Elevation
		}
		coords = append(coords, c)
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(name),
			kml.Placemark(
				kml.Name(name),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
		),
	)

	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}
