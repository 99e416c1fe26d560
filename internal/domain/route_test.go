package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouteDefinition(t *testing.T) {
	tests := []struct {
		name        string
		stations    []RoutePosition
		expectError bool
	}{
		{
			name: "valid route",
			stations: []RoutePosition{
				{StationID: "st-a", SequenceOrder: 1},
				{StationID: "st-b", SequenceOrder: 2},
			},
		},
		{
			name: "repeated station id is allowed",
			stations: []RoutePosition{
				{StationID: "st-a", SequenceOrder: 1},
				{StationID: "st-qc", SequenceOrder: 2},
				{StationID: "st-b", SequenceOrder: 3},
				{StationID: "st-qc", SequenceOrder: 4},
			},
		},
		{
			name: "out of order input is normalized",
			stations: []RoutePosition{
				{StationID: "st-b", SequenceOrder: 2},
				{StationID: "st-a", SequenceOrder: 1},
			},
		},
		{
			name:        "empty route rejected",
			stations:    nil,
			expectError: true,
		},
		{
			name: "duplicate sequence order rejected",
			stations: []RoutePosition{
				{StationID: "st-a", SequenceOrder: 1},
				{StationID: "st-b", SequenceOrder: 1},
			},
			expectError: true,
		},
		{
			name: "sparse sequence rejected",
			stations: []RoutePosition{
				{StationID: "st-a", SequenceOrder: 1},
				{StationID: "st-b", SequenceOrder: 3},
			},
			expectError: true,
		},
		{
			name: "zero-based sequence rejected",
			stations: []RoutePosition{
				{StationID: "st-a", SequenceOrder: 0},
				{StationID: "st-b", SequenceOrder: 1},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := NewRouteDefinition("rt-1", "Main Line", "", tt.stations)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, route.Version)
			assert.Len(t, route.Stations, len(tt.stations))
			for i, pos := range route.Stations {
				assert.Equal(t, i+1, pos.SequenceOrder)
			}
		})
	}
}

func TestRouteDefinition_StationAt(t *testing.T) {
	route, err := NewRouteDefinition("rt-1", "Main Line", "", []RoutePosition{
		{StationID: "st-a", SequenceOrder: 1},
		{StationID: "st-b", SequenceOrder: 2},
	})
	require.NoError(t, err)

	pos, ok := route.StationAt(1)
	require.True(t, ok)
	assert.Equal(t, "st-a", pos.StationID)

	_, ok = route.StationAt(0)
	assert.False(t, ok)

	_, ok = route.StationAt(3)
	assert.False(t, ok)
}

// A route visiting QC twice must advance from the second QC occurrence to
// the end, not jump back to the first occurrence.
func TestRouteDefinition_NextAfter_RepeatedStation(t *testing.T) {
	route, err := NewRouteDefinition("rt-1", "Main Line", "", []RoutePosition{
		{StationID: "st-qc", SequenceOrder: 1},
		{StationID: "st-pack", SequenceOrder: 2},
		{StationID: "st-qc", SequenceOrder: 3},
	})
	require.NoError(t, err)

	next, ok := route.NextAfter(1)
	require.True(t, ok)
	assert.Equal(t, "st-pack", next.StationID)
	assert.Equal(t, 2, next.SequenceOrder)

	next, ok = route.NextAfter(2)
	require.True(t, ok)
	assert.Equal(t, "st-qc", next.StationID)
	assert.Equal(t, 3, next.SequenceOrder)

	_, ok = route.NextAfter(3)
	assert.False(t, ok, "route should be exhausted after the last position")
}

func TestRouteDefinition_References(t *testing.T) {
	route, err := NewRouteDefinition("rt-1", "Main Line", "", []RoutePosition{
		{StationID: "st-a", SequenceOrder: 1},
	})
	require.NoError(t, err)

	assert.True(t, route.References("st-a"))
	assert.False(t, route.References("st-b"))
}
