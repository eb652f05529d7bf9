package editor

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/geo"
)

// RankCandidates orders insertion candidates by cumulative route distance at
// the projection of (lng, lat) onto each candidate segment. The distance is
// the rendered length of every segment before the candidate plus the length
// along the candidate's polyline up to the clamped projection. Invalid and
// duplicate candidates are dropped; ties keep input order.
func (r *Route) RankCandidates(candidates []domain.Candidate, lng, lat float64) []domain.RankedCandidate {
	prefix := r.prefixKm()
	target := orb.Point{lng, lat}

	seen := make(map[int]bool, len(candidates))
	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		g, ok := r.flatSegment(c)
		if !ok || seen[g] {
			continue
		}
		seen[g] = true

		seg := r.segments[g]
		line := seg.Geometry
		if len(line) < 2 {
			line = geo.Straight(r.points[g].Coord(), r.points[g+1].Coord())
		}
		proj, _ := geo.Project(line, target)

		ranked = append(ranked, domain.RankedCandidate{
			Candidate:    c,
			SegmentID:    seg.ID,
			CumulativeKm: prefix[g] + proj.AlongKm,
			Projected:    proj.Point,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CumulativeKm < ranked[j].CumulativeKm
	})
	return ranked
}

// prefixKm returns, for every flat segment, the rendered length of the route
// before it.
func (r *Route) prefixKm() []float64 {
	prefix := make([]float64, len(r.segments)+1)
	for i, seg := range r.segments {
		prefix[i+1] = prefix[i] + geo.LengthKm(seg.Geometry)
	}
	return prefix
}
