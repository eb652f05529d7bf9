package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/route-planner/internal/domain"
)

const defaultSurfaceColor = "#2a9e92"

// FeatureCollection builds the map display layer: one feature per segment
// (or per surface part when the routing engine returned them) and one per
// point.
func FeatureCollection(sections []domain.Section) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for s, sec := range sections {
		for i, seg := range sec.Segments {
			if len(seg.SurfaceParts) == 0 {
				f := geojson.NewFeature(seg.Geometry)
				f.Properties["kind"] = "segment"
				f.Properties["color"] = sec.Color
				f.Properties["surface"] = ""
				setSegmentProperties(f, s, i, seg)
				fc.Append(f)
				continue
			}

			for _, part := range seg.SurfaceParts {
				color := part.Color
				if color == "" {
					color = defaultSurfaceColor
				}
				f := geojson.NewFeature(part.Geometry)
				f.Properties["kind"] = "surface"
				f.Properties["color"] = color
				f.Properties["surface"] = part.Surface
				setSegmentProperties(f, s, i, seg)
				fc.Append(f)
			}
		}
	}

	for s, sec := range sections {
		for i, pt := range sec.Points {
			f := geojson.NewFeature(orb.Point{pt.Lng, pt.Lat})
			f.ID = pt.ID
			f.Properties["kind"] = string(pt.Kind)
			f.Properties["label"] = pt.Label
			f.Properties["section_idx"] = s
			f.Properties["point_idx"] = i
			f.Properties["color"] = sec.Color
			fc.Append(f)
		}
	}

	return fc
}

func setSegmentProperties(f *geojson.Feature, section, idx int, seg domain.Segment) {
	f.ID = seg.ID
	f.Properties["section_idx"] = section
	f.Properties["segment_idx"] = idx
	f.Properties["state"] = string(seg.State)
	f.Properties["distance_km"] = seg.DistanceKm
}
