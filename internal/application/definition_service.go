package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
	"github.com/phkuod/product-tracking-sub000/pkg/errors"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
)

// DefinitionService manages station and route definitions. Route topology
// freezes once any product references it: an edit then creates a new
// version instead of mutating in place.
type DefinitionService struct {
	stations domain.StationRepository
	routes   domain.RouteRepository
	products domain.ProductRepository
	logger   *logging.Logger
}

// NewDefinitionService creates a DefinitionService
func NewDefinitionService(
	stations domain.StationRepository,
	routes domain.RouteRepository,
	products domain.ProductRepository,
	logger *logging.Logger,
) *DefinitionService {
	return &DefinitionService{
		stations: stations,
		routes:   routes,
		products: products,
		logger:   logger.WithComponent("definition-service"),
	}
}

// CreateStation creates a station definition
func (s *DefinitionService) CreateStation(ctx context.Context, cmd CreateStationCommand) (*StationDTO, error) {
	fields, err := toFieldDefinitions(cmd.Fields, func() string { return uuid.New().String() })
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	station, err := domain.NewStationDefinition(
		uuid.New().String(), cmd.Name, cmd.Owner,
		domain.CompletionRule(cmd.CompletionRule), cmd.EstimatedDurationMinutes, fields)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.stations.Save(ctx, station); err != nil {
		s.logger.WithError(err).Error("Failed to create station", "stationId", station.ID)
		return nil, fmt.Errorf("failed to create station: %w", err)
	}

	s.logger.Event(ctx, "station_created", map[string]any{"stationId": station.ID, "name": station.Name})
	return ToStationDTO(station), nil
}

// GetStation retrieves a station definition
func (s *DefinitionService) GetStation(ctx context.Context, stationID string) (*StationDTO, error) {
	station, err := s.findStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return ToStationDTO(station), nil
}

// ListStations lists all station definitions
func (s *DefinitionService) ListStations(ctx context.Context) ([]*StationDTO, error) {
	stations, err := s.stations.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	dtos := make([]*StationDTO, len(stations))
	for i, st := range stations {
		dtos[i] = ToStationDTO(st)
	}
	return dtos, nil
}

// UpdateStation edits a station definition. Fields already defined keep
// their id and type, and select options may only grow: captured history
// references field ids, so removing or retyping a field would orphan
// ledger data.
func (s *DefinitionService) UpdateStation(ctx context.Context, cmd UpdateStationCommand) (*StationDTO, error) {
	existing, err := s.findStation(ctx, cmd.StationID)
	if err != nil {
		return nil, err
	}

	fields, err := toFieldDefinitions(cmd.Fields, func() string { return uuid.New().String() })
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := checkFieldCompatibility(existing.Fields, fields); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	updated, err := domain.NewStationDefinition(
		existing.ID, cmd.Name, cmd.Owner,
		domain.CompletionRule(cmd.CompletionRule), cmd.EstimatedDurationMinutes, fields)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if err := s.stations.Update(ctx, updated); err != nil {
		s.logger.WithError(err).Error("Failed to update station", "stationId", updated.ID)
		return nil, fmt.Errorf("failed to update station: %w", err)
	}

	s.logger.Event(ctx, "station_updated", map[string]any{"stationId": updated.ID})
	return ToStationDTO(updated), nil
}

// DeleteStation removes a station definition; rejected while any route
// still references it
func (s *DefinitionService) DeleteStation(ctx context.Context, stationID string) error {
	if _, err := s.findStation(ctx, stationID); err != nil {
		return err
	}

	routes, err := s.routes.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to check route references: %w", err)
	}
	for _, route := range routes {
		if route.References(stationID) {
			return errors.ErrConflict(domain.ErrStationInUse.Error()).
				WithDetail("routeId", route.ID)
		}
	}

	if err := s.stations.Delete(ctx, stationID); err != nil {
		s.logger.WithError(err).Error("Failed to delete station", "stationId", stationID)
		return fmt.Errorf("failed to delete station: %w", err)
	}

	s.logger.Event(ctx, "station_deleted", map[string]any{"stationId": stationID})
	return nil
}

// CreateRoute creates a route definition after checking every referenced
// station exists
func (s *DefinitionService) CreateRoute(ctx context.Context, cmd CreateRouteCommand) (*RouteDTO, error) {
	positions := toRoutePositions(cmd.Stations)
	if err := s.checkStationsExist(ctx, positions); err != nil {
		return nil, err
	}

	route, err := domain.NewRouteDefinition(uuid.New().String(), cmd.Name, cmd.Description, positions)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.routes.Save(ctx, route); err != nil {
		s.logger.WithError(err).Error("Failed to create route", "routeId", route.ID)
		return nil, fmt.Errorf("failed to create route: %w", err)
	}

	s.logger.Event(ctx, "route_created", map[string]any{"routeId": route.ID, "stations": len(route.Stations)})
	return ToRouteDTO(route), nil
}

// GetRoute retrieves a route definition
func (s *DefinitionService) GetRoute(ctx context.Context, routeID string) (*RouteDTO, error) {
	route, err := s.findRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return ToRouteDTO(route), nil
}

// ListRoutes lists all route definitions
func (s *DefinitionService) ListRoutes(ctx context.Context) ([]*RouteDTO, error) {
	routes, err := s.routes.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	dtos := make([]*RouteDTO, len(routes))
	for i, r := range routes {
		dtos[i] = ToRouteDTO(r)
	}
	return dtos, nil
}

// UpdateRoute edits a route. While no product references the route it is
// updated in place; once referenced, the edit creates a new version and
// links the old one to it, so in-flight products keep their frozen
// topology.
func (s *DefinitionService) UpdateRoute(ctx context.Context, cmd UpdateRouteCommand) (*RouteDTO, error) {
	existing, err := s.findRoute(ctx, cmd.RouteID)
	if err != nil {
		return nil, err
	}
	if existing.SupersededBy != "" {
		return nil, errors.ErrConflict("route version is superseded").
			WithDetail("supersededBy", existing.SupersededBy)
	}

	positions := toRoutePositions(cmd.Stations)
	if err := s.checkStationsExist(ctx, positions); err != nil {
		return nil, err
	}

	inUse, err := s.products.CountByRouteID(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check route usage: %w", err)
	}

	if inUse == 0 {
		updated, err := domain.NewRouteDefinition(existing.ID, cmd.Name, cmd.Description, positions)
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
		updated.Version = existing.Version
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()

		if err := s.routes.Update(ctx, updated); err != nil {
			s.logger.WithError(err).Error("Failed to update route", "routeId", updated.ID)
			return nil, fmt.Errorf("failed to update route: %w", err)
		}

		s.logger.Event(ctx, "route_updated", map[string]any{"routeId": updated.ID})
		return ToRouteDTO(updated), nil
	}

	next, err := domain.NewRouteDefinition(uuid.New().String(), cmd.Name, cmd.Description, positions)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	next.Version = existing.Version + 1

	if err := s.routes.Save(ctx, next); err != nil {
		s.logger.WithError(err).Error("Failed to save route version", "routeId", next.ID)
		return nil, fmt.Errorf("failed to save route version: %w", err)
	}

	existing.SupersededBy = next.ID
	existing.UpdatedAt = time.Now().UTC()
	if err := s.routes.Update(ctx, existing); err != nil {
		s.logger.WithError(err).Error("Failed to link superseded route", "routeId", existing.ID)
		return nil, fmt.Errorf("failed to link superseded route: %w", err)
	}

	s.logger.Event(ctx, "route_version_created", map[string]any{
		"routeId":    next.ID,
		"version":    next.Version,
		"supersedes": existing.ID,
		"productsInFlight": inUse,
	})
	return ToRouteDTO(next), nil
}

func (s *DefinitionService) checkStationsExist(ctx context.Context, positions []domain.RoutePosition) error {
	ids := make([]string, 0, len(positions))
	seen := make(map[string]bool, len(positions))
	for _, pos := range positions {
		if !seen[pos.StationID] {
			seen[pos.StationID] = true
			ids = append(ids, pos.StationID)
		}
	}

	found, err := s.stations.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load stations: %w", err)
	}
	for _, id := range ids {
		if found[id] == nil {
			return errors.ErrNotFoundWithID("station", id)
		}
	}
	return nil
}

func (s *DefinitionService) findStation(ctx context.Context, stationID string) (*domain.StationDefinition, error) {
	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load station: %w", err)
	}
	if station == nil {
		return nil, errors.ErrNotFoundWithID("station", stationID)
	}
	return station, nil
}

func (s *DefinitionService) findRoute(ctx context.Context, routeID string) (*domain.RouteDefinition, error) {
	route, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load route: %w", err)
	}
	if route == nil {
		return nil, errors.ErrNotFoundWithID("route", routeID)
	}
	return route, nil
}

// checkFieldCompatibility enforces field immutability against captured
// history: existing fields keep their type and stay present, select
// options may only be appended.
func checkFieldCompatibility(existing, updated []domain.FieldDefinition) error {
	byID := make(map[string]*domain.FieldDefinition, len(updated))
	for i := range updated {
		byID[updated[i].ID] = &updated[i]
	}

	for i := range existing {
		prev := &existing[i]
		next, ok := byID[prev.ID]
		if !ok {
			return fmt.Errorf("field %q cannot be removed once defined", prev.Name)
		}
		if next.Type != prev.Type {
			return fmt.Errorf("field %q cannot change type from %s to %s", prev.Name, prev.Type, next.Type)
		}
		if prev.Type == domain.FieldTypeSelect {
			options := make(map[string]bool, len(next.Options))
			for _, opt := range next.Options {
				options[opt] = true
			}
			for _, opt := range prev.Options {
				if !options[opt] {
					return fmt.Errorf("option %q of field %q cannot be removed", opt, prev.Name)
				}
			}
		}
	}
	return nil
}
