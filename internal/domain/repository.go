package domain

import (
	"context"
	"time"
)

// ProductQuery describes the read-side filters over the product listing.
// Status filters on the effective status, so the store needs Now to compare
// against the denormalized due time.
type ProductQuery struct {
	Search   string
	Status   string
	RouteID  string
	Priority string
	Owner    string
	DateFrom *time.Time
	DateTo   *time.Time
	Now      time.Time

	SortField string
	SortAsc   bool
	Offset    int64
	Limit     int64
}

// ProductRepository persists the product aggregate together with its ledger
// entries and pending domain events. Create and Update are transactional
// across product, entries and outbox; Update enforces the optimistic
// version check and surfaces ErrConcurrentModification on a lost race.
type ProductRepository interface {
	Create(ctx context.Context, product *Product, firstEntry *StationHistoryEntry) error
	Update(ctx context.Context, product *Product, entries []*StationHistoryEntry) error
	FindByID(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context, query ProductQuery) ([]*Product, int64, error)
	Delete(ctx context.Context, product *Product) error

	FindOpenEntry(ctx context.Context, productID string) (*StationHistoryEntry, error)
	HistoryFor(ctx context.Context, productID string) ([]*StationHistoryEntry, error)
	CountByRouteID(ctx context.Context, routeID string) (int64, error)
}

// RouteRepository persists route definitions
type RouteRepository interface {
	Save(ctx context.Context, route *RouteDefinition) error
	Update(ctx context.Context, route *RouteDefinition) error
	FindByID(ctx context.Context, routeID string) (*RouteDefinition, error)
	FindAll(ctx context.Context) ([]*RouteDefinition, error)
}

// StationRepository persists station definitions
type StationRepository interface {
	Save(ctx context.Context, station *StationDefinition) error
	Update(ctx context.Context, station *StationDefinition) error
	FindByID(ctx context.Context, stationID string) (*StationDefinition, error)
	FindByIDs(ctx context.Context, stationIDs []string) (map[string]*StationDefinition, error)
	FindAll(ctx context.Context) ([]*StationDefinition, error)
	Delete(ctx context.Context, stationID string) error
}
