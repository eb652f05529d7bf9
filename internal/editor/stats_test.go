package editor

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Stats(t *testing.T) {
	r := buildRoute(t, ptA, ptB, ptC, ptD)
	require.True(t, r.Split(0, 2))
	sections := r.Sections()

	r.Resolve(sections[0].Segments[0].ID, &domain.RouteResult{DistanceKm: 1.2, AscentM: 10})
	r.Resolve(sections[0].Segments[1].ID, &domain.RouteResult{DistanceKm: 0.8, AscentM: 5})
	r.Fail(sections[1].Segments[0].ID, "timeout")

	stats := r.Stats()
	assert.Equal(t, 4, stats.Points)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.Errors)
	assert.InDelta(t, 2.0, stats.DistanceKm, 1e-9)
	assert.InDelta(t, 15, stats.AscentM, 1e-9)

	require.Len(t, stats.Sections, 2)
	assert.Equal(t, 2, stats.Sections[0].Segments, "bridge counted in the earlier section")
	assert.InDelta(t, 2.0, stats.Sections[0].DistanceKm, 1e-9)
	assert.Equal(t, 0.0, stats.Sections[1].DistanceKm)

	require.NotNil(t, stats.BBox)
	assert.Equal(t, 0.0, stats.BBox.MinLon)
	assert.Equal(t, 0.03, stats.BBox.MaxLon)
}

func TestRoute_StatsEmpty(t *testing.T) {
	stats := NewRoute().Stats()
	assert.Nil(t, stats.BBox)
	assert.Empty(t, stats.Sections)
}

func TestRoute_Profile(t *testing.T) {
	r := buildRoute(t, [2]float64{0, 0}, [2]float64{0.01, 0}, [2]float64{0.02, 0})
	require.True(t, r.Split(0, 1))
	sections := r.Sections()

	r.Resolve(sections[0].Segments[0].ID, &domain.RouteResult{
		Geometry:   orb.LineString{{0, 0}, {0.005, 0}, {0.01, 0}},
		Elevations: []float64{100, 110, 105},
	})
	r.Resolve(sections[1].Segments[0].ID, &domain.RouteResult{
		Geometry:   orb.LineString{{0.01, 0}, {0.02, 0}},
		Elevations: []float64{105, 120},
	})

	profile := r.Profile()
	require.Len(t, profile, 4)

	assert.Equal(t, 0.0, profile[0].DistanceKm)
	assert.Equal(t, 100.0, profile[0].Elevation)
	assert.Equal(t, 110.0, profile[1].Elevation)
	assert.Equal(t, 0, profile[2].SectionIdx)
	assert.Equal(t, 1, profile[3].SectionIdx)
	assert.Equal(t, 120.0, profile[3].Elevation)
	assert.InDelta(t, geo.DistanceKm(orb.Point{0, 0}, orb.Point{0.02, 0}), profile[3].DistanceKm, 1e-6)
}

func TestRoute_ProfileSkipsSegmentsWithoutElevation(t *testing.T) {
	r := buildRoute(t, ptA, ptB, ptC)
	second := r.Sections()[0].Segments[1].ID
	r.Resolve(second, &domain.RouteResult{
		Geometry:   orb.LineString{{0.01, 0}, {0.02, 0}},
		Elevations: []float64{50, 60},
	})

	profile := r.Profile()
	require.Len(t, profile, 1)
	assert.Equal(t, 60.0, profile[0].Elevation)
	assert.InDelta(t, geo.DistanceKm(orb.Point{0, 0}, orb.Point{0.02, 0}), profile[0].DistanceKm, 1e-6)
}
