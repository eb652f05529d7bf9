package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteSavedEvent_Valid(t *testing.T) {
	tests := []struct {
		name     string
		event    RouteSavedEvent
		expected bool
	}{
		{
			name:     "event with route id",
			event:    RouteSavedEvent{RouteID: uuid.New()},
			expected: true,
		},
		{
			name:     "event without route id",
			event:    RouteSavedEvent{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Valid())
		})
	}
}

func TestRouteSavedEvent_JSONFieldNames(t *testing.T) {
	id := uuid.New()
	data, err := json.Marshal(RouteSavedEvent{RouteID: id, Overwrite: true})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, id.String(), raw["route_id"])
	assert.Equal(t, true, raw["overwrite"])
}

func TestSection_Totals(t *testing.T) {
	s := Section{
		Segments: []Segment{
			{DistanceKm: 1.5, AscentM: 10},
			{DistanceKm: 2.25, AscentM: 5},
		},
	}

	assert.InDelta(t, 3.75, s.DistanceKm(), 1e-9)
	assert.InDelta(t, 15, s.AscentM(), 1e-9)
}

func TestSegment_HasElevations(t *testing.T) {
	seg := Segment{}
	assert.False(t, seg.HasElevations())

	seg.Geometry = append(seg.Geometry, Point{Lng: 1, Lat: 2}.Coord(), Point{Lng: 3, Lat: 4}.Coord())
	seg.Elevations = []float64{10}
	assert.False(t, seg.HasElevations())

	seg.Elevations = []float64{10, 12}
	assert.True(t, seg.HasElevations())
}
