package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
	"github.com/phkuod/product-tracking-sub000/pkg/kafka"
	"github.com/phkuod/product-tracking-sub000/pkg/outbox"
	outboxMongo "github.com/phkuod/product-tracking-sub000/pkg/outbox/mongodb"
)

const (
	productsCollection = "products"
	historyCollection  = "station_history"
	aggregateType      = "Product"
)

// ProductRepository persists the product aggregate, its ledger entries and
// its domain events. Product, history and outbox writes share one
// transaction, and updates carry an optimistic version filter.
type ProductRepository struct {
	products   *mongo.Collection
	history    *mongo.Collection
	db         *mongo.Database
	outboxRepo *outboxMongo.Repository
}

// NewProductRepository creates a ProductRepository and ensures its indexes
func NewProductRepository(db *mongo.Database) *ProductRepository {
	repo := &ProductRepository{
		products:   db.Collection(productsCollection),
		history:    db.Collection(historyCollection),
		db:         db,
		outboxRepo: outboxMongo.NewRepository(db),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// OutboxRepository exposes the outbox store for the relay publisher
func (r *ProductRepository) OutboxRepository() *outboxMongo.Repository {
	return r.outboxRepo
}

func (r *ProductRepository) ensureIndexes(ctx context.Context) {
	productIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "routeId", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "currentOwner", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "statusOverride", Value: 1}, {Key: "currentDueAt", Value: 1}}},
	}
	_, _ = r.products.Indexes().CreateMany(ctx, productIndexes)

	historyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "startTime", Value: 1}}},
		{
			// At most one open entry per product, enforced by the store as
			// a backstop behind the version check
			Keys: bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().
				SetName("idx_one_open_entry").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": bson.A{
						string(domain.EntryStatusPending),
						string(domain.EntryStatusInProgress),
					}},
				}),
		},
	}
	_, _ = r.history.Indexes().CreateMany(ctx, historyIndexes)

	_ = r.outboxRepo.EnsureIndexes(ctx)
}

// Create inserts a product with its first ledger entry and pending events
// in one transaction
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product, firstEntry *domain.StationHistoryEntry) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.products.InsertOne(sessCtx, product); err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
		if firstEntry != nil {
			if _, err := r.history.InsertOne(sessCtx, firstEntry); err != nil {
				return fmt.Errorf("failed to insert history entry: %w", err)
			}
		}
		return r.saveEvents(sessCtx, product)
	})
}

// Update persists the product and any closed/opened ledger entries. The
// product document is matched on {_id, version}: a missed match means a
// concurrent writer won and the call surfaces ErrConcurrentModification.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product, entries []*domain.StationHistoryEntry) error {
	expectedVersion := product.Version
	product.Version = expectedVersion + 1

	err := r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		filter := bson.M{"_id": product.ID, "version": expectedVersion}
		result, err := r.products.ReplaceOne(sessCtx, filter, product)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrConcurrentModification
		}

		for _, entry := range entries {
			opts := options.Replace().SetUpsert(true)
			if _, err := r.history.ReplaceOne(sessCtx, bson.M{"_id": entry.ID}, entry, opts); err != nil {
				return fmt.Errorf("failed to upsert history entry %s: %w", entry.ID, err)
			}
		}

		return r.saveEvents(sessCtx, product)
	})

	if err != nil {
		product.Version = expectedVersion
		return err
	}
	return nil
}

// FindByID returns the product, or nil when it does not exist
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	err := r.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// List returns a filtered page of products plus the total match count.
// Status filters evaluate the effective status inside the store using the
// denormalized due time, so overdue products are filterable without a
// background sweep.
func (r *ProductRepository) List(ctx context.Context, query domain.ProductQuery) ([]*domain.Product, int64, error) {
	filter := r.buildFilter(query)

	total, err := r.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(buildSort(query)).
		SetSkip(query.Offset).
		SetLimit(query.Limit)

	cursor, err := r.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, total, nil
}

// Delete removes the product, its ledger entries and its outbox rows, then
// records the deletion event, all in one transaction
func (r *ProductRepository) Delete(ctx context.Context, product *domain.Product) error {
	return r.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := r.products.DeleteOne(sessCtx, bson.M{"_id": product.ID})
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if result.DeletedCount == 0 {
			return domain.ErrProductNotFound
		}

		if _, err := r.history.DeleteMany(sessCtx, bson.M{"productId": product.ID}); err != nil {
			return fmt.Errorf("failed to delete history entries: %w", err)
		}

		if err := r.outboxRepo.DeleteByAggregateID(sessCtx, product.ID); err != nil {
			return err
		}

		return r.saveEvents(sessCtx, product)
	})
}

// FindOpenEntry returns the product's pending or in_progress entry, or nil
func (r *ProductRepository) FindOpenEntry(ctx context.Context, productID string) (*domain.StationHistoryEntry, error) {
	filter := bson.M{
		"productId": productID,
		"status": bson.M{"$in": bson.A{
			string(domain.EntryStatusPending),
			string(domain.EntryStatusInProgress),
		}},
	}

	var entry domain.StationHistoryEntry
	err := r.history.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open entry: %w", err)
	}
	return &entry, nil
}

// HistoryFor returns the product's ledger ascending by start time
func (r *ProductRepository) HistoryFor(ctx context.Context, productID string) ([]*domain.StationHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "startTime", Value: 1},
		{Key: "sequenceOrder", Value: 1},
	})

	cursor, err := r.history.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.StationHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}
	return entries, nil
}

// CountByRouteID counts products referencing a route version
func (r *ProductRepository) CountByRouteID(ctx context.Context, routeID string) (int64, error) {
	count, err := r.products.CountDocuments(ctx, bson.M{"routeId": routeID})
	if err != nil {
		return 0, fmt.Errorf("failed to count products by route: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) buildFilter(query domain.ProductQuery) bson.M {
	filter := bson.M{}

	if query.RouteID != "" {
		filter["routeId"] = query.RouteID
	}
	if query.Priority != "" {
		filter["priority"] = query.Priority
	}
	if query.Owner != "" {
		filter["currentOwner"] = query.Owner
	}
	if query.Search != "" {
		regex := primitive.Regex{Pattern: regexp.QuoteMeta(query.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"model": regex},
		}
	}
	if query.DateFrom != nil || query.DateTo != nil {
		created := bson.M{}
		if query.DateFrom != nil {
			created["$gte"] = *query.DateFrom
		}
		if query.DateTo != nil {
			created["$lte"] = *query.DateTo
		}
		filter["createdAt"] = created
	}

	switch query.Status {
	case string(domain.StatusOverdue):
		filter["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"statusOverride": string(domain.StatusOverdue)},
			bson.M{
				"statusOverride": bson.M{"$in": bson.A{nil, ""}},
				"currentDueAt":   bson.M{"$lt": query.Now},
			},
		}}}
	case string(domain.StatusNormal):
		filter["$and"] = bson.A{bson.M{"$or": bson.A{
			bson.M{"statusOverride": string(domain.StatusNormal)},
			bson.M{
				"statusOverride": bson.M{"$in": bson.A{nil, ""}},
				"$or": bson.A{
					bson.M{"currentDueAt": bson.M{"$exists": false}},
					bson.M{"currentDueAt": bson.M{"$gte": query.Now}},
				},
			},
		}}}
	}

	return filter
}

var sortFields = map[string]string{
	"createdAt":       "createdAt",
	"updatedAt":       "updatedAt",
	"name":            "name",
	"priority":        "priority",
	"progressPercent": "progressPercent",
}

func buildSort(query domain.ProductQuery) bson.D {
	field, ok := sortFields[query.SortField]
	if !ok {
		field = "createdAt"
	}
	direction := -1
	if query.SortAsc {
		direction = 1
	}
	// Secondary _id sort keeps pages stable under concurrent writes
	return bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}}
}

func (r *ProductRepository) saveEvents(sessCtx mongo.SessionContext, product *domain.Product) error {
	domainEvents := product.ClearEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.Event, 0, len(domainEvents))
	for _, event := range domainEvents {
		outboxEvent, err := outbox.NewEvent(aggregateType, kafka.Topics.ProductEvents, event)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

func (r *ProductRepository) withTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
