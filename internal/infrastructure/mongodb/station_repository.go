package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
)

const stationsCollection = "stations"

// StationRepository persists station definitions
type StationRepository struct {
	collection *mongo.Collection
}

// NewStationRepository creates a StationRepository
func NewStationRepository(db *mongo.Database) *StationRepository {
	repo := &StationRepository{collection: db.Collection(stationsCollection)}
	_, _ = repo.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	})
	return repo
}

// Save inserts a station definition
func (r *StationRepository) Save(ctx context.Context, station *domain.StationDefinition) error {
	if _, err := r.collection.InsertOne(ctx, station); err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}
	return nil
}

// Update replaces a station definition
func (r *StationRepository) Update(ctx context.Context, station *domain.StationDefinition) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": station.ID}, station)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrStationNotFound
	}
	return nil
}

// FindByID returns the station, or nil when it does not exist
func (r *StationRepository) FindByID(ctx context.Context, stationID string) (*domain.StationDefinition, error) {
	var station domain.StationDefinition
	err := r.collection.FindOne(ctx, bson.M{"_id": stationID}).Decode(&station)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find station: %w", err)
	}
	return &station, nil
}

// FindByIDs returns the stations found for the given ids, keyed by id
func (r *StationRepository) FindByIDs(ctx context.Context, stationIDs []string) (map[string]*domain.StationDefinition, error) {
	if len(stationIDs) == 0 {
		return map[string]*domain.StationDefinition{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": stationIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find stations: %w", err)
	}
	defer cursor.Close(ctx)

	var stations []*domain.StationDefinition
	if err := cursor.All(ctx, &stations); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}

	found := make(map[string]*domain.StationDefinition, len(stations))
	for _, st := range stations {
		found[st.ID] = st
	}
	return found, nil
}

// FindAll returns every station definition sorted by name
func (r *StationRepository) FindAll(ctx context.Context) ([]*domain.StationDefinition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer cursor.Close(ctx)

	var stations []*domain.StationDefinition
	if err := cursor.All(ctx, &stations); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}
	return stations, nil
}

// Delete removes a station definition
func (r *StationRepository) Delete(ctx context.Context, stationID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": stationID})
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrStationNotFound
	}
	return nil
}
