package application

import (
	"context"
	"sort"
	"strings"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
)

// In-memory repository fakes. Update mimics the optimistic version check
// the Mongo repository performs.

type fakeProductRepo struct {
	products map[string]*domain.Product
	entries  map[string]*domain.StationHistoryEntry
	events   []domain.DomainEvent

	failUpdateWith error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[string]*domain.Product),
		entries:  make(map[string]*domain.StationHistoryEntry),
	}
}

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product, firstEntry *domain.StationHistoryEntry) error {
	r.events = append(r.events, product.ClearEvents()...)
	r.products[product.ID] = product
	if firstEntry != nil {
		r.entries[firstEntry.ID] = firstEntry
	}
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *domain.Product, entries []*domain.StationHistoryEntry) error {
	if r.failUpdateWith != nil {
		return r.failUpdateWith
	}

	stored, ok := r.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if stored != product && stored.Version != product.Version {
		return domain.ErrConcurrentModification
	}

	product.Version++
	r.events = append(r.events, product.ClearEvents()...)
	r.products[product.ID] = product
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	return r.products[productID], nil
}

func (r *fakeProductRepo) List(ctx context.Context, query domain.ProductQuery) ([]*domain.Product, int64, error) {
	var matched []*domain.Product
	for _, p := range r.products {
		if query.RouteID != "" && p.RouteID != query.RouteID {
			continue
		}
		if query.Priority != "" && string(p.Priority) != query.Priority {
			continue
		}
		if query.Status != "" && string(p.EffectiveStatus(query.Now)) != query.Status {
			continue
		}
		if query.Owner != "" && p.CurrentOwner != query.Owner {
			continue
		}
		if query.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(query.Search)) &&
			!strings.Contains(strings.ToLower(p.Model), strings.ToLower(query.Search)) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := query.Offset
	if start > total {
		start = total
	}
	end := start + query.Limit
	if query.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, product *domain.Product) error {
	r.events = append(r.events, product.ClearEvents()...)
	delete(r.products, product.ID)
	for id, e := range r.entries {
		if e.ProductID == product.ID {
			delete(r.entries, id)
		}
	}
	return nil
}

func (r *fakeProductRepo) FindOpenEntry(ctx context.Context, productID string) (*domain.StationHistoryEntry, error) {
	for _, e := range r.entries {
		if e.ProductID == productID && e.IsOpen() {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) HistoryFor(ctx context.Context, productID string) ([]*domain.StationHistoryEntry, error) {
	var entries []*domain.StationHistoryEntry
	for _, e := range r.entries {
		if e.ProductID == productID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime.Equal(entries[j].StartTime) {
			return entries[i].SequenceOrder < entries[j].SequenceOrder
		}
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
	return entries, nil
}

func (r *fakeProductRepo) CountByRouteID(ctx context.Context, routeID string) (int64, error) {
	var count int64
	for _, p := range r.products {
		if p.RouteID == routeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeProductRepo) openEntryCount(productID string) int {
	count := 0
	for _, e := range r.entries {
		if e.ProductID == productID && e.IsOpen() {
			count++
		}
	}
	return count
}

type fakeRouteRepo struct {
	routes map[string]*domain.RouteDefinition
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{routes: make(map[string]*domain.RouteDefinition)}
}

func (r *fakeRouteRepo) Save(ctx context.Context, route *domain.RouteDefinition) error {
	r.routes[route.ID] = route
	return nil
}

func (r *fakeRouteRepo) Update(ctx context.Context, route *domain.RouteDefinition) error {
	if _, ok := r.routes[route.ID]; !ok {
		return domain.ErrRouteNotFound
	}
	r.routes[route.ID] = route
	return nil
}

func (r *fakeRouteRepo) FindByID(ctx context.Context, routeID string) (*domain.RouteDefinition, error) {
	return r.routes[routeID], nil
}

func (r *fakeRouteRepo) FindAll(ctx context.Context) ([]*domain.RouteDefinition, error) {
	var routes []*domain.RouteDefinition
	for _, rt := range r.routes {
		routes = append(routes, rt)
	}
	return routes, nil
}

type fakeStationRepo struct {
	stations map[string]*domain.StationDefinition
}

func newFakeStationRepo() *fakeStationRepo {
	return &fakeStationRepo{stations: make(map[string]*domain.StationDefinition)}
}

func (r *fakeStationRepo) Save(ctx context.Context, station *domain.StationDefinition) error {
	r.stations[station.ID] = station
	return nil
}

func (r *fakeStationRepo) Update(ctx context.Context, station *domain.StationDefinition) error {
	if _, ok := r.stations[station.ID]; !ok {
		return domain.ErrStationNotFound
	}
	r.stations[station.ID] = station
	return nil
}

func (r *fakeStationRepo) FindByID(ctx context.Context, stationID string) (*domain.StationDefinition, error) {
	return r.stations[stationID], nil
}

func (r *fakeStationRepo) FindByIDs(ctx context.Context, stationIDs []string) (map[string]*domain.StationDefinition, error) {
	found := make(map[string]*domain.StationDefinition)
	for _, id := range stationIDs {
		if st, ok := r.stations[id]; ok {
			found[id] = st
		}
	}
	return found, nil
}

func (r *fakeStationRepo) FindAll(ctx context.Context) ([]*domain.StationDefinition, error) {
	var stations []*domain.StationDefinition
	for _, st := range r.stations {
		stations = append(stations, st)
	}
	return stations, nil
}

func (r *fakeStationRepo) Delete(ctx context.Context, stationID string) error {
	delete(r.stations, stationID)
	return nil
}
