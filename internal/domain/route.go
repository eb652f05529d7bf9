package domain

import (
	"github.com/paulmach/orb"
)

// PointKind distinguishes route endpoints from intermediate via points.
type PointKind string

const (
	PointKindEndpoint PointKind = "endpoint"
	PointKindVia      PointKind = "via"
)

// SegmentState is the recomputation lifecycle stage of a segment.
type SegmentState string

const (
	SegmentPending  SegmentState = "pending"
	SegmentResolved SegmentState = "resolved"
	SegmentError    SegmentState = "error"
	SegmentStraight SegmentState = "straight"
)

// Point is a user placed waypoint. Identity is the ID, never the index.
type Point struct {
	ID    string    `json:"id"`
	Lng   float64   `json:"lng"`
	Lat   float64   `json:"lat"`
	Kind  PointKind `json:"kind"`
	Label string    `json:"label,omitempty"`
}

// Coord returns the point as an orb.Point (lng, lat).
func (p Point) Coord() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// SurfacePart is a sub-polyline of a segment painted with one surface colour.
type SurfacePart struct {
	Color    string         `json:"color"`
	Surface  string         `json:"surface"`
	Geometry orb.LineString `json:"geometry"`
}

// Segment is the computed or placeholder path between two consecutive points.
type Segment struct {
	ID           string         `json:"id"`
	StartPointID string         `json:"start_point_id"`
	EndPointID   string         `json:"end_point_id"`
	State        SegmentState   `json:"state"`
	Geometry     orb.LineString `json:"geometry"`
	// Elevations is parallel to Geometry when the routing engine returned heights.
	Elevations   []float64     `json:"elevations,omitempty"`
	DistanceKm   float64       `json:"distance_km"`
	AscentM      float64       `json:"ascent_m"`
	SurfaceParts []SurfacePart `json:"surface_parts,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// HasElevations reports whether every geometry vertex carries an elevation.
func (s Segment) HasElevations() bool {
	return len(s.Elevations) > 0 && len(s.Elevations) == len(s.Geometry)
}

// Section is an independently named and coloured chain of points.
// For every section but the last, Segments ends with the bridge segment
// that connects the section's last point to the next section's first point.
type Section struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Points   []Point   `json:"points"`
	Segments []Segment `json:"segments"`
}

// DistanceKm sums segment distances of the section, bridge included.
func (s Section) DistanceKm() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.DistanceKm
	}
	return total
}

// AscentM sums segment ascent of the section, bridge included.
func (s Section) AscentM() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.AscentM
	}
	return total
}

// EditorState is the serialized route exchanged with the persistence layer.
type EditorState struct {
	Sections []Section `json:"sections"`
}

// Candidate is a (section, segment) pair proposed as an insertion target.
type Candidate struct {
	SectionIdx int `json:"section_idx"`
	SegmentIdx int `json:"segment_idx"`
}

// RankedCandidate is a candidate with the cumulative route distance at the
// projection of the dropped coordinate onto the candidate segment.
type RankedCandidate struct {
	Candidate
	SegmentID    string    `json:"segment_id"`
	CumulativeKm float64   `json:"cumulative_km"`
	Projected    orb.Point `json:"projected"`
}

// ProfilePoint is one vertex of the elevation profile.
type ProfilePoint struct {
	DistanceKm float64 `json:"distance_km"`
	Elevation  float64 `json:"elevation"`
	Lng        float64 `json:"lng"`
	Lat        float64 `json:"lat"`
	SectionIdx int     `json:"section_idx"`
}
