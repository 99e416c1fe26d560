package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
	"github.com/phkuod/product-tracking-sub000/pkg/errors"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/metrics"
)

// TrackingService is the progression engine: it owns every mutation of a
// product's station pointer, ledger and derived fields. The repositories
// are injected; the service holds no process-wide state.
type TrackingService struct {
	products domain.ProductRepository
	routes   domain.RouteRepository
	stations domain.StationRepository
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewTrackingService creates a TrackingService
func NewTrackingService(
	products domain.ProductRepository,
	routes domain.RouteRepository,
	stations domain.StationRepository,
	logger *logging.Logger,
	m *metrics.Metrics,
) *TrackingService {
	return &TrackingService{
		products: products,
		routes:   routes,
		stations: stations,
		logger:   logger.WithComponent("tracking-service"),
		metrics:  m,
	}
}

// CreateProduct creates a product against a route and opens the ledger
// entry for the route's first station.
func (s *TrackingService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*ProductDTO, error) {
	route, err := s.findRoute(ctx, cmd.RouteID)
	if err != nil {
		return nil, err
	}

	product, err := domain.NewProduct(uuid.New().String(), cmd.Name, cmd.Model, route, domain.ProductPriority(cmd.Priority))
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	first, _ := route.StationAt(1)
	station, err := s.findStation(ctx, first.StationID)
	if err != nil {
		return nil, err
	}

	entry := domain.NewStationHistoryEntry(uuid.New().String(), product.ID, station, 1)
	product.OpenStation(entry)

	if err := s.products.Create(ctx, product, entry); err != nil {
		s.logger.WithError(err).Error("Failed to create product", "productId", product.ID)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordProductCreated(product.RouteID, string(product.Priority))
	}
	s.logger.Event(ctx, "product_created",
		map[string]any{"productId": product.ID, "routeId": route.ID, "firstStation": station.ID})

	return ToProductDTO(product, time.Now().UTC()), nil
}

// GetProduct retrieves a product by id
func (s *TrackingService) GetProduct(ctx context.Context, productID string) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToProductDTO(product, time.Now().UTC()), nil
}

// ListProducts returns a filtered, paginated product page plus the total
// count. Status filters on the effective status as of now.
func (s *TrackingService) ListProducts(ctx context.Context, query ListProductsQuery) ([]*ProductDTO, int64, error) {
	q := domain.ProductQuery{
		Search:    query.List.Filter.Search,
		Status:    query.List.Filter.Status,
		RouteID:   query.List.Filter.RouteID,
		Priority:  query.List.Filter.Priority,
		Owner:     query.List.Filter.Owner,
		Now:       time.Now().UTC(),
		SortField: query.List.Sort.Field,
		SortAsc:   query.List.Sort.GetMongoSort() == 1,
		Offset:    query.List.Pagination.GetOffset(),
		Limit:     query.List.Pagination.GetLimit(),
	}

	if query.List.Filter.DateFrom != "" {
		from, err := time.Parse("2006-01-02", query.List.Filter.DateFrom)
		if err != nil {
			return nil, 0, errors.ErrValidation("dateFrom must be formatted as YYYY-MM-DD")
		}
		q.DateFrom = &from
	}
	if query.List.Filter.DateTo != "" {
		to, err := time.Parse("2006-01-02", query.List.Filter.DateTo)
		if err != nil {
			return nil, 0, errors.ErrValidation("dateTo must be formatted as YYYY-MM-DD")
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		q.DateTo = &end
	}

	products, total, err := s.products.List(ctx, q)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list products")
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return ToProductDTOs(products, q.Now), total, nil
}

// GetHistory returns the product's ledger ascending by start time
func (s *TrackingService) GetHistory(ctx context.Context, productID string) ([]*HistoryEntryDTO, error) {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return nil, err
	}

	entries, err := s.products.HistoryFor(ctx, productID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load history", "productId", productID)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return ToHistoryEntryDTOs(entries), nil
}

// AdvanceProduct records field data against the open station visit and
// attempts to close it. Skipped outcomes bypass completion validation
// entirely; forceComplete bypasses required-ness on custom-rule stations.
// On validation failure the captured data is kept, the entry stays open and
// the station pointer does not move.
func (s *TrackingService) AdvanceProduct(ctx context.Context, cmd AdvanceProductCommand) (*AdvanceResultDTO, error) {
	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if err := product.CanAdvance(); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	route, err := s.findRoute(ctx, product.RouteID)
	if err != nil {
		return nil, err
	}

	entry, err := s.products.FindOpenEntry(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve open entry: %w", err)
	}

	// Products created before the engine owned creation may have no entry
	// yet; open the first position lazily instead of requiring a start call
	opened := false
	if entry == nil {
		first, ok := route.StationAt(1)
		if !ok {
			return nil, errors.ErrConflict("route has no stations")
		}
		station, err := s.findStation(ctx, first.StationID)
		if err != nil {
			return nil, err
		}
		entry = domain.NewStationHistoryEntry(uuid.New().String(), product.ID, station, 1)
		product.OpenStation(entry)
		opened = true
	}

	station, err := s.findStation(ctx, entry.StationID)
	if err != nil {
		return nil, err
	}

	for fieldID, value := range cmd.FieldData {
		if err := entry.RecordFieldData(fieldID, value); err != nil {
			return nil, errors.ErrConflict(err.Error())
		}
	}

	outcome := domain.EntryStatusCompleted
	if cmd.Outcome == string(domain.EntryStatusSkipped) {
		outcome = domain.EntryStatusSkipped
	}

	if outcome != domain.EntryStatusSkipped {
		var result domain.ValidationResult
		if cmd.ForceComplete && station.CompletionRule == domain.CompletionRuleCustom {
			result = station.ValidateValues(entry.CapturedFieldData)
		} else {
			result = station.ValidateSubmission(entry.CapturedFieldData)
		}

		if !result.Valid {
			if s.metrics != nil {
				s.metrics.RecordValidationFailure(station.ID)
			}

			// Keep the captured data and the in_progress transition, but
			// leave the entry open and the pointer where it is
			if err := s.products.Update(ctx, product, []*domain.StationHistoryEntry{entry}); err != nil {
				return nil, s.mapUpdateError(err, product.ID)
			}

			return nil, errors.ErrValidationWithFields("station completion validation failed", result.FieldMap())
		}
	}

	if err := entry.Close(outcome, cmd.Notes); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}
	product.CloseStation(entry)

	entries := []*domain.StationHistoryEntry{entry}
	var nextEntry *domain.StationHistoryEntry

	if next, ok := route.NextAfter(entry.SequenceOrder); ok {
		nextStation, err := s.findStation(ctx, next.StationID)
		if err != nil {
			return nil, err
		}
		nextEntry = domain.NewStationHistoryEntry(uuid.New().String(), product.ID, nextStation, next.SequenceOrder)
		product.OpenStation(nextEntry)
		product.SetProgress(entry.SequenceOrder, route.TotalPositions())
		entries = append(entries, nextEntry)
	} else {
		product.CompleteRoute()
	}

	if err := s.products.Update(ctx, product, entries); err != nil {
		return nil, s.mapUpdateError(err, product.ID)
	}

	if s.metrics != nil {
		s.metrics.RecordProductAdvanced(string(outcome))
		if outcome == domain.EntryStatusSkipped {
			s.metrics.RecordStationSkipped(entry.StationID)
		}
		if product.IsRouteComplete() {
			s.metrics.RecordProductCompleted()
		}
	}

	s.logger.Event(ctx, "product_advanced", map[string]any{
		"productId":     product.ID,
		"closedStation": entry.StationID,
		"outcome":       string(outcome),
		"lazyOpened":    opened,
		"progress":      product.ProgressPercent,
	})

	now := time.Now().UTC()
	result := &AdvanceResultDTO{
		Product:     ToProductDTO(product, now),
		ClosedEntry: ToHistoryEntryDTO(entry),
	}
	if nextEntry != nil {
		result.OpenedEntry = ToHistoryEntryDTO(nextEntry)
	}
	return result, nil
}

// TerminateProduct cancels a product: the open ledger entry closes as
// skipped with the termination reason and the product enters the absorbing
// terminated state.
func (s *TrackingService) TerminateProduct(ctx context.Context, cmd TerminateProductCommand) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	var entries []*domain.StationHistoryEntry
	entry, err := s.products.FindOpenEntry(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve open entry: %w", err)
	}
	if entry != nil {
		if err := entry.Close(domain.EntryStatusSkipped, "terminated: "+cmd.Reason); err != nil {
			return nil, errors.ErrConflict(err.Error())
		}
		entries = append(entries, entry)
	}

	if err := product.Terminate(cmd.Reason, cmd.ChangedBy); err != nil {
		return nil, errors.ErrConflict(err.Error())
	}

	if err := s.products.Update(ctx, product, entries); err != nil {
		return nil, s.mapUpdateError(err, product.ID)
	}

	if s.metrics != nil {
		s.metrics.RecordProductTerminated()
	}
	s.logger.Audit(ctx, "terminate", "product", product.ID, cmd.ChangedBy,
		map[string]any{"reason": cmd.Reason})

	return ToProductDTO(product, time.Now().UTC()), nil
}

// UpdateProduct applies an administrative edit to a single product,
// atomically per record
func (s *TrackingService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	update := toAdminUpdate(cmd)
	if err := product.ApplyAdminUpdate(update, cmd.ChangedBy); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.products.Update(ctx, product, nil); err != nil {
		return nil, s.mapUpdateError(err, product.ID)
	}

	s.logger.Audit(ctx, "update", "product", product.ID, cmd.ChangedBy, nil)

	return ToProductDTO(product, time.Now().UTC()), nil
}

// BulkUpdateProducts applies one update payload per product independently.
// A failure on one id never rolls back the others; the result reports the
// success count and per-item errors.
func (s *TrackingService) BulkUpdateProducts(ctx context.Context, cmd BulkUpdateProductsCommand) (*BulkUpdateResultDTO, error) {
	result := &BulkUpdateResultDTO{}

	for _, productID := range cmd.ProductIDs {
		item := cmd.Update
		item.ProductID = productID
		item.ChangedBy = cmd.ChangedBy

		if _, err := s.UpdateProduct(ctx, item); err != nil {
			result.Errors = append(result.Errors, BulkItemError{
				ProductID: productID,
				Error:     errors.MapDomainError(err).Message,
			})
			if s.metrics != nil {
				s.metrics.RecordBulkUpdateItem("failed")
			}
			continue
		}

		result.UpdatedCount++
		if s.metrics != nil {
			s.metrics.RecordBulkUpdateItem("updated")
		}
	}

	s.logger.Event(ctx, "products_bulk_updated", map[string]any{
		"requested": len(cmd.ProductIDs),
		"updated":   result.UpdatedCount,
		"failed":    len(result.Errors),
	})

	return result, nil
}

// DeleteProduct removes a product, its ledger entries and its pending
// outbox rows in one transaction
func (s *TrackingService) DeleteProduct(ctx context.Context, cmd DeleteProductCommand) error {
	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return err
	}

	product.MarkDeleted(cmd.ChangedBy)

	if err := s.products.Delete(ctx, product); err != nil {
		s.logger.WithError(err).Error("Failed to delete product", "productId", product.ID)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Audit(ctx, "delete", "product", product.ID, cmd.ChangedBy, nil)
	return nil
}

func (s *TrackingService) findProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errors.ErrNotFoundWithID("product", productID)
	}
	return product, nil
}

func (s *TrackingService) findRoute(ctx context.Context, routeID string) (*domain.RouteDefinition, error) {
	route, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load route: %w", err)
	}
	if route == nil {
		return nil, errors.ErrNotFoundWithID("route", routeID)
	}
	return route, nil
}

func (s *TrackingService) findStation(ctx context.Context, stationID string) (*domain.StationDefinition, error) {
	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load station: %w", err)
	}
	if station == nil {
		return nil, errors.ErrNotFoundWithID("station", stationID)
	}
	return station, nil
}

func (s *TrackingService) mapUpdateError(err error, productID string) error {
	if stderrors.Is(err, domain.ErrConcurrentModification) {
		return errors.ErrConcurrencyConflict("product").WithDetail("id", productID)
	}
	s.logger.WithError(err).Error("Failed to persist product", "productId", productID)
	return fmt.Errorf("failed to persist product: %w", err)
}

func toAdminUpdate(cmd UpdateProductCommand) domain.AdminUpdate {
	update := domain.AdminUpdate{
		Name:                cmd.Name,
		Model:               cmd.Model,
		ClearStatusOverride: cmd.ClearStatusOverride,
	}
	if cmd.Priority != nil {
		p := domain.ProductPriority(*cmd.Priority)
		update.Priority = &p
	}
	if cmd.StatusOverride != nil {
		st := domain.ProductStatus(*cmd.StatusOverride)
		update.StatusOverride = &st
	}
	return update
}
