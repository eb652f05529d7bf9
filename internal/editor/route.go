// Package editor implements the route graph: sections of points connected by
// segments, the structural edit operations, undo/redo history, insertion
// candidate ranking, and editing sessions that reconcile routing results.
//
// Internally a Route is one flat sequence of points. segments[i] always
// connects points[i] and points[i+1], and sections are cut points over the
// flat sequence, so the route is connected by construction. The segment
// crossing a cut is the bridge and is reported as the last segment of the
// earlier section.
package editor

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/geo"
)

var sectionPalette = []string{
	"#3B82F6",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
	"#84CC16",
	"#06B6D4",
}

type sectionMeta struct {
	id    string
	name  string
	color string
	start int
}

// Route is the route graph store. It is not safe for concurrent use;
// Session serializes access to it.
type Route struct {
	points   []domain.Point
	segments []domain.Segment
	sections []sectionMeta
	// created counts sections ever created and drives default names and colours
	created int
}

// NewRoute returns an empty route without sections.
func NewRoute() *Route {
	return &Route{}
}

func (r *Route) newSection(start int) sectionMeta {
	r.created++
	return sectionMeta{
		id:    uuid.NewString(),
		name:  fmt.Sprintf("Section %d", r.created),
		color: sectionPalette[(r.created-1)%len(sectionPalette)],
		start: start,
	}
}

func newPendingSegment(a, b domain.Point) domain.Segment {
	return domain.Segment{
		ID:           uuid.NewString(),
		StartPointID: a.ID,
		EndPointID:   b.ID,
		State:        domain.SegmentPending,
		Geometry:     geo.Straight(a.Coord(), b.Coord()),
	}
}

// sectionEnd returns the flat index one past the last point of section s.
func (r *Route) sectionEnd(s int) int {
	if s+1 < len(r.sections) {
		return r.sections[s+1].start
	}
	return len(r.points)
}

// segmentEnd returns the flat index one past the last segment of section s,
// bridge included.
func (r *Route) segmentEnd(s int) int {
	if s+1 < len(r.sections) {
		return r.sections[s+1].start
	}
	return max(len(r.points)-1, r.sections[s].start)
}

func (r *Route) validSection(s int) bool {
	return s >= 0 && s < len(r.sections)
}

// flatPoint maps a (section, point) address to the flat point index.
func (r *Route) flatPoint(s, p int) (int, bool) {
	if !r.validSection(s) || p < 0 {
		return 0, false
	}
	f := r.sections[s].start + p
	if f >= r.sectionEnd(s) {
		return 0, false
	}
	return f, true
}

// flatSegment maps a candidate to the flat segment index.
func (r *Route) flatSegment(c domain.Candidate) (int, bool) {
	if !r.validSection(c.SectionIdx) || c.SegmentIdx < 0 {
		return 0, false
	}
	g := r.sections[c.SectionIdx].start + c.SegmentIdx
	if g >= r.segmentEnd(c.SectionIdx) {
		return 0, false
	}
	return g, true
}

// sectionOf returns the section that holds flat point f.
func (r *Route) sectionOf(f int) int {
	for s := len(r.sections) - 1; s > 0; s-- {
		if r.sections[s].start <= f {
			return s
		}
	}
	return 0
}

func (r *Route) shiftStarts(from, delta int) {
	for i := from; i < len(r.sections); i++ {
		r.sections[i].start += delta
	}
}

func (r *Route) refreshKinds() {
	for i := range r.points {
		if i == 0 || i == len(r.points)-1 {
			r.points[i].Kind = domain.PointKindEndpoint
		} else {
			r.points[i].Kind = domain.PointKindVia
		}
	}
}

// Append adds a point at the end of the last section, creating the first
// section when the route has none. It returns the ids of new pending segments.
func (r *Route) Append(lng, lat float64) []string {
	if len(r.sections) == 0 {
		r.sections = append(r.sections, r.newSection(0))
	}

	pt := domain.Point{ID: uuid.NewString(), Lng: lng, Lat: lat}
	r.points = append(r.points, pt)

	var created []string
	if n := len(r.points); n > 1 {
		seg := newPendingSegment(r.points[n-2], pt)
		r.segments = append(r.segments, seg)
		created = append(created, seg.ID)
	}

	r.refreshKinds()
	return created
}

// Remove deletes a point and every segment touching it. Former neighbours are
// reconnected by one new pending segment, whether they were in the same
// section or on both sides of a section boundary. A section left without
// points is deleted unless it is the only one.
func (r *Route) Remove(s, p int) ([]string, bool) {
	f, ok := r.flatPoint(s, p)
	if !ok {
		return nil, false
	}

	n := len(r.points)
	lo, hi := max(f-1, 0), min(f+1, n-1)

	var repl []domain.Segment
	if f > 0 && f < n-1 {
		repl = append(repl, newPendingSegment(r.points[f-1], r.points[f+1]))
	}
	if lo < hi {
		r.segments = slices.Replace(r.segments, lo, hi, repl...)
	}
	r.points = slices.Delete(r.points, f, f+1)
	r.shiftStarts(s+1, -1)

	if r.sectionEnd(s) == r.sections[s].start && len(r.sections) > 1 {
		r.sections = slices.Delete(r.sections, s, s+1)
	}

	r.refreshKinds()
	return segmentIDs(repl), true
}

// Move relocates a point and replaces every incident segment, bridges
// included, with a fresh pending placeholder. Fresh ids make results of
// requests issued before the move stale.
func (r *Route) Move(s, p int, lng, lat float64) ([]string, bool) {
	f, ok := r.flatPoint(s, p)
	if !ok {
		return nil, false
	}

	r.points[f].Lng = lng
	r.points[f].Lat = lat

	var created []string
	if f > 0 {
		r.segments[f-1] = newPendingSegment(r.points[f-1], r.points[f])
		created = append(created, r.segments[f-1].ID)
	}
	if f < len(r.points)-1 {
		r.segments[f] = newPendingSegment(r.points[f], r.points[f+1])
		created = append(created, r.segments[f].ID)
	}

	return created, true
}

// InsertMidSegment splits the candidate segment around a new via point.
// A point dropped onto a bridge becomes the last point of the earlier section.
func (r *Route) InsertMidSegment(c domain.Candidate, lng, lat float64) ([]string, bool) {
	g, ok := r.flatSegment(c)
	if !ok {
		return nil, false
	}

	pt := domain.Point{ID: uuid.NewString(), Lng: lng, Lat: lat, Kind: domain.PointKindVia}
	first := newPendingSegment(r.points[g], pt)
	second := newPendingSegment(pt, r.points[g+1])

	r.points = slices.Insert(r.points, g+1, pt)
	r.segments = slices.Replace(r.segments, g, g+1, first, second)
	r.shiftStarts(c.SectionIdx+1, 1)

	r.refreshKinds()
	return []string{first.ID, second.ID}, true
}

// Split cuts section s so that point p becomes the head of a new section
// placed right after it. Valid for 1 <= p < number of points in s.
func (r *Route) Split(s, p int) bool {
	if !r.validSection(s) || p < 1 {
		return false
	}
	cut := r.sections[s].start + p
	if cut >= r.sectionEnd(s) {
		return false
	}

	r.sections = slices.Insert(r.sections, s+1, r.newSection(cut))
	return true
}

// Merge joins section s+1 into section s. The bridge between them is already
// in place, so no segment changes.
func (r *Route) Merge(s int) bool {
	if !r.validSection(s) || s == len(r.sections)-1 {
		return false
	}

	r.sections = slices.Delete(r.sections, s+1, s+2)
	return true
}

// DeleteSection removes a section with its points and segments. When it sat
// between two sections a fresh bridge joins them.
func (r *Route) DeleteSection(s int) ([]string, bool) {
	if !r.validSection(s) {
		return nil, false
	}

	a, b := r.sections[s].start, r.sectionEnd(s)
	if a == b && len(r.sections) == 1 {
		return nil, false
	}

	n := len(r.points)
	var repl []domain.Segment
	if a > 0 && b < n {
		repl = append(repl, newPendingSegment(r.points[a-1], r.points[b]))
	}
	if lo, hi := max(a-1, 0), min(b, n-1); lo < hi {
		r.segments = slices.Replace(r.segments, lo, hi, repl...)
	}
	r.points = slices.Delete(r.points, a, b)
	r.shiftStarts(s+1, a-b)
	r.sections = slices.Delete(r.sections, s, s+1)

	if len(r.sections) == 0 {
		r.sections = append(r.sections, r.newSection(0))
	}

	r.refreshKinds()
	return segmentIDs(repl), true
}

// RenameSection sets the display name of a section.
func (r *Route) RenameSection(s int, name string) bool {
	if !r.validSection(s) || r.sections[s].name == name {
		return false
	}
	r.sections[s].name = name
	return true
}

// RenamePoint sets the label of a point.
func (r *Route) RenamePoint(s, p int, label string) bool {
	f, ok := r.flatPoint(s, p)
	if !ok || r.points[f].Label == label {
		return false
	}
	r.points[f].Label = label
	return true
}

// Clear drops everything and leaves a single empty section.
func (r *Route) Clear() bool {
	if len(r.points) == 0 && len(r.sections) <= 1 {
		return false
	}

	r.points = nil
	r.segments = nil
	r.sections = []sectionMeta{r.newSection(0)}
	return true
}

// Empty reports whether the route has no points.
func (r *Route) Empty() bool {
	return len(r.points) == 0
}

// NumSections returns the number of sections.
func (r *Route) NumSections() int {
	return len(r.sections)
}

func (r *Route) segmentIndex(id string) int {
	for i := range r.segments {
		if r.segments[i].ID == id {
			return i
		}
	}
	return -1
}

// HasSegment reports whether a segment with this id is still part of the route.
func (r *Route) HasSegment(id string) bool {
	return r.segmentIndex(id) >= 0
}

// Segment returns a copy of the segment with this id.
func (r *Route) Segment(id string) (domain.Segment, bool) {
	i := r.segmentIndex(id)
	if i < 0 {
		return domain.Segment{}, false
	}
	return cloneSegment(r.segments[i]), true
}

// Endpoints returns the points a segment connects.
func (r *Route) Endpoints(id string) (domain.Point, domain.Point, bool) {
	i := r.segmentIndex(id)
	if i < 0 {
		return domain.Point{}, domain.Point{}, false
	}
	return r.points[i], r.points[i+1], true
}

// PendingSegments returns ids of all segments waiting for a routing result.
func (r *Route) PendingSegments() []string {
	var ids []string
	for _, seg := range r.segments {
		if seg.State == domain.SegmentPending {
			ids = append(ids, seg.ID)
		}
	}
	return ids
}

// Resolve merges a routing result into the segment with this id. It returns
// false when the segment no longer exists.
func (r *Route) Resolve(id string, res *domain.RouteResult) bool {
	i := r.segmentIndex(id)
	if i < 0 {
		return false
	}

	seg := &r.segments[i]
	seg.State = domain.SegmentResolved
	seg.Error = ""
	seg.DistanceKm = res.DistanceKm
	seg.AscentM = res.AscentM
	seg.Elevations = slices.Clone(res.Elevations)
	seg.SurfaceParts = cloneSurfaceParts(res.SurfaceParts)
	if len(res.Geometry) >= 2 {
		seg.Geometry = res.Geometry.Clone()
	}
	return true
}

// ResolveStraight settles a segment as a straight line with zero metrics.
func (r *Route) ResolveStraight(id string) bool {
	i := r.segmentIndex(id)
	if i < 0 {
		return false
	}

	r.segments[i] = domain.Segment{
		ID:           id,
		StartPointID: r.points[i].ID,
		EndPointID:   r.points[i+1].ID,
		State:        domain.SegmentStraight,
		Geometry:     geo.Straight(r.points[i].Coord(), r.points[i+1].Coord()),
	}
	return true
}

// Fail marks a segment as errored, keeping its placeholder geometry.
func (r *Route) Fail(id string, reason string) bool {
	i := r.segmentIndex(id)
	if i < 0 {
		return false
	}

	r.segments[i].State = domain.SegmentError
	r.segments[i].Error = reason
	return true
}

// Sections returns a deep copy of the route split into sections.
func (r *Route) Sections() []domain.Section {
	out := make([]domain.Section, 0, len(r.sections))
	for s, meta := range r.sections {
		sec := domain.Section{
			ID:       meta.id,
			Name:     meta.name,
			Color:    meta.color,
			Points:   slices.Clone(r.points[meta.start:r.sectionEnd(s)]),
			Segments: make([]domain.Segment, 0, r.segmentEnd(s)-meta.start),
		}
		if sec.Points == nil {
			sec.Points = []domain.Point{}
		}
		for _, seg := range r.segments[meta.start:r.segmentEnd(s)] {
			sec.Segments = append(sec.Segments, cloneSegment(seg))
		}
		out = append(out, sec)
	}
	return out
}

// State returns the serializable editor state.
func (r *Route) State() domain.EditorState {
	return domain.EditorState{Sections: r.Sections()}
}

// Clone returns a deep, independent copy of the route.
func (r *Route) Clone() *Route {
	cp := &Route{
		points:   slices.Clone(r.points),
		segments: make([]domain.Segment, len(r.segments)),
		sections: slices.Clone(r.sections),
		created:  r.created,
	}
	for i, seg := range r.segments {
		cp.segments[i] = cloneSegment(seg)
	}
	return cp
}

// LoadRoute rebuilds a route from a persisted editor state. Sections without
// points are dropped. A segment is kept only if it connects two consecutive
// points; missing connections get pending placeholders.
func LoadRoute(state domain.EditorState) *Route {
	r := NewRoute()

	bySpan := make(map[[2]string]domain.Segment)
	for _, sec := range state.Sections {
		for _, seg := range sec.Segments {
			bySpan[[2]string{seg.StartPointID, seg.EndPointID}] = seg
		}
	}

	seen := make(map[string]bool)
	for _, sec := range state.Sections {
		start := len(r.points)
		for _, pt := range sec.Points {
			if pt.ID == "" || seen[pt.ID] {
				pt.ID = uuid.NewString()
			}
			seen[pt.ID] = true
			r.points = append(r.points, pt)
		}
		if len(r.points) == start {
			continue
		}

		meta := r.newSection(start)
		if sec.ID != "" {
			meta.id = sec.ID
		}
		if sec.Name != "" {
			meta.name = sec.Name
		}
		if sec.Color != "" {
			meta.color = sec.Color
		}
		r.sections = append(r.sections, meta)
	}

	if len(r.sections) == 0 {
		r.sections = append(r.sections, r.newSection(0))
	}

	for i := 0; i+1 < len(r.points); i++ {
		a, b := r.points[i], r.points[i+1]
		seg, ok := bySpan[[2]string{a.ID, b.ID}]
		if !ok || seg.ID == "" {
			r.segments = append(r.segments, newPendingSegment(a, b))
			continue
		}
		seg = cloneSegment(seg)
		if len(seg.Geometry) < 2 {
			seg.Geometry = geo.Straight(a.Coord(), b.Coord())
		}
		if seg.State == "" {
			seg.State = domain.SegmentPending
		}
		r.segments = append(r.segments, seg)
	}

	r.refreshKinds()
	return r
}

func segmentIDs(segs []domain.Segment) []string {
	ids := make([]string, 0, len(segs))
	for _, seg := range segs {
		ids = append(ids, seg.ID)
	}
	return ids
}

func cloneSegment(seg domain.Segment) domain.Segment {
	seg.Geometry = seg.Geometry.Clone()
	seg.Elevations = slices.Clone(seg.Elevations)
	seg.SurfaceParts = cloneSurfaceParts(seg.SurfaceParts)
	return seg
}

func cloneSurfaceParts(parts []domain.SurfacePart) []domain.SurfacePart {
	if parts == nil {
		return nil
	}
	out := make([]domain.SurfacePart, len(parts))
	for i, part := range parts {
		out[i] = part
		out[i].Geometry = part.Geometry.Clone()
	}
	return out
}
