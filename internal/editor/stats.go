package editor

import (
	"math"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/geo"
)

// Stats sums segment metrics per section and for the whole route.
func (r *Route) Stats() domain.RouteStats {
	stats := domain.RouteStats{
		Points:   len(r.points),
		Sections: make([]domain.SectionStats, 0, len(r.sections)),
	}

	for s, meta := range r.sections {
		ss := domain.SectionStats{
			SectionID: meta.id,
			Name:      meta.name,
			Points:    r.sectionEnd(s) - meta.start,
			Segments:  r.segmentEnd(s) - meta.start,
		}
		for _, seg := range r.segments[meta.start:r.segmentEnd(s)] {
			ss.DistanceKm += seg.DistanceKm
			ss.AscentM += seg.AscentM
			switch seg.State {
			case domain.SegmentPending:
				stats.Pending++
			case domain.SegmentError:
				stats.Errors++
			}
		}
		stats.DistanceKm += ss.DistanceKm
		stats.AscentM += ss.AscentM
		stats.Sections = append(stats.Sections, ss)
	}

	stats.BBox = r.bbox()
	return stats
}

func (r *Route) bbox() *domain.BoundingBox {
	if len(r.points) == 0 {
		return nil
	}

	box := &domain.BoundingBox{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	extend := func(lng, lat float64) {
		box.MinLat = math.Min(box.MinLat, lat)
		box.MaxLat = math.Max(box.MaxLat, lat)
		box.MinLon = math.Min(box.MinLon, lng)
		box.MaxLon = math.Max(box.MaxLon, lng)
	}

	for _, pt := range r.points {
		extend(pt.Lng, pt.Lat)
	}
	for _, seg := range r.segments {
		for _, c := range seg.Geometry {
			extend(c[0], c[1])
		}
	}
	return box
}

// Profile returns elevation samples along the rendered route, one per
// geometry vertex that carries an elevation. Distance accumulates over all
// segments, including those without elevation data.
func (r *Route) Profile() []domain.ProfilePoint {
	var (
		out   []domain.ProfilePoint
		total float64
	)

	for g, seg := range r.segments {
		section := r.sectionOf(g)
		withElevation := seg.HasElevations()
		for i, c := range seg.Geometry {
			if i > 0 {
				total += geo.DistanceKm(seg.Geometry[i-1], c)
			} else if g > 0 {
				// shared with the previous segment's last vertex
				continue
			}
			if !withElevation {
				continue
			}
			out = append(out, domain.ProfilePoint{
				DistanceKm: total,
				Elevation:  seg.Elevations[i],
				Lng:        c[0],
				Lat:        c[1],
				SectionIdx: section,
			})
		}
	}

	return out
}
