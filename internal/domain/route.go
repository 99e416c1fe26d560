package domain

import (
	"fmt"
	"time"
)

// RoutePosition is one occurrence of a station within a route. A station id
// may appear more than once; the sequence order is what identifies the
// position.
type RoutePosition struct {
	StationID     string `bson:"stationId" json:"stationId"`
	SequenceOrder int    `bson:"sequenceOrder" json:"sequenceOrder"`
}

// RouteDefinition is an ordered template of stations a product must pass
// through. Once any product references a route version its topology is
// frozen; edits create a new version.
type RouteDefinition struct {
	ID          string          `bson:"_id" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	Version     int             `bson:"version" json:"version"`
	Stations    []RoutePosition `bson:"stations" json:"stations"`
	SupersededBy string         `bson:"supersededBy,omitempty" json:"supersededBy,omitempty"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// NewRouteDefinition creates a route, validating that sequence orders are
// 1-based, dense and unique.
func NewRouteDefinition(id, name, description string, stations []RoutePosition) (*RouteDefinition, error) {
	if id == "" {
		return nil, fmt.Errorf("route id is required")
	}
	if name == "" {
		return nil, fmt.Errorf("route name is required")
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("route requires at least one station")
	}

	seen := make(map[int]bool, len(stations))
	for _, pos := range stations {
		if pos.StationID == "" {
			return nil, fmt.Errorf("route position %d is missing a station id", pos.SequenceOrder)
		}
		if pos.SequenceOrder < 1 || pos.SequenceOrder > len(stations) {
			return nil, fmt.Errorf("sequence order %d is out of range 1..%d", pos.SequenceOrder, len(stations))
		}
		if seen[pos.SequenceOrder] {
			return nil, fmt.Errorf("duplicate sequence order %d", pos.SequenceOrder)
		}
		seen[pos.SequenceOrder] = true
	}

	ordered := make([]RoutePosition, len(stations))
	for _, pos := range stations {
		ordered[pos.SequenceOrder-1] = pos
	}

	now := time.Now().UTC()
	return &RouteDefinition{
		ID:          id,
		Name:        name,
		Description: description,
		Version:     1,
		Stations:    ordered,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TotalPositions returns the route length; repeated stations count
// individually.
func (r *RouteDefinition) TotalPositions() int {
	return len(r.Stations)
}

// StationAt returns the position at the given 1-based sequence order
func (r *RouteDefinition) StationAt(sequenceOrder int) (RoutePosition, bool) {
	if sequenceOrder < 1 || sequenceOrder > len(r.Stations) {
		return RoutePosition{}, false
	}
	return r.Stations[sequenceOrder-1], true
}

// NextAfter returns the position following the given sequence order, or
// false when the route is exhausted. Advancement is always resolved by
// sequence position, never by station id: a repeated station id must not
// send the product backward into an earlier occurrence.
func (r *RouteDefinition) NextAfter(sequenceOrder int) (RoutePosition, bool) {
	return r.StationAt(sequenceOrder + 1)
}

// References reports whether the route contains the given station id
func (r *RouteDefinition) References(stationID string) bool {
	for _, pos := range r.Stations {
		if pos.StationID == stationID {
			return true
		}
	}
	return false
}
