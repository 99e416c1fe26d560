package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
)

const routesCollection = "routes"

// RouteRepository persists route definitions
type RouteRepository struct {
	collection *mongo.Collection
}

// NewRouteRepository creates a RouteRepository
func NewRouteRepository(db *mongo.Database) *RouteRepository {
	repo := &RouteRepository{collection: db.Collection(routesCollection)}
	_, _ = repo.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "version", Value: -1}},
	})
	return repo
}

// Save inserts a route definition
func (r *RouteRepository) Save(ctx context.Context, route *domain.RouteDefinition) error {
	if _, err := r.collection.InsertOne(ctx, route); err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	return nil
}

// Update replaces a route definition
func (r *RouteRepository) Update(ctx context.Context, route *domain.RouteDefinition) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": route.ID}, route)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrRouteNotFound
	}
	return nil
}

// FindByID returns the route, or nil when it does not exist
func (r *RouteRepository) FindByID(ctx context.Context, routeID string) (*domain.RouteDefinition, error) {
	var route domain.RouteDefinition
	err := r.collection.FindOne(ctx, bson.M{"_id": routeID}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find route: %w", err)
	}
	return &route, nil
}

// FindAll returns every route definition, newest first
func (r *RouteRepository) FindAll(ctx context.Context) ([]*domain.RouteDefinition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer cursor.Close(ctx)

	var routes []*domain.RouteDefinition
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return routes, nil
}
