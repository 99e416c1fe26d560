package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
	pkgmongo "github.com/phkuod/product-tracking-sub000/pkg/mongodb"
)

// Integration tests against a real MongoDB replica set. Skipped unless
// MONGODB_TEST_URI is set; transactions require a replica set, so a plain
// standalone instance will not do.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	dbName := "product_tracking_test_" + pkgmongo.GenerateIDString()[:8]
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

func seedStation(t *testing.T) *domain.StationDefinition {
	t.Helper()
	field, err := domain.NewFieldDefinition("f1", "Result", domain.FieldTypeText, true, nil, "")
	require.NoError(t, err)
	station, err := domain.NewStationDefinition("st-1", "Assembly", "line-1", domain.CompletionRuleAllFilled, 60, []domain.FieldDefinition{*field})
	require.NoError(t, err)
	return station
}

func seedRoute(t *testing.T) *domain.RouteDefinition {
	t.Helper()
	route, err := domain.NewRouteDefinition("rt-1", "Main Line", "", []domain.RoutePosition{
		{StationID: "st-1", SequenceOrder: 1},
		{StationID: "st-1", SequenceOrder: 2},
	})
	require.NoError(t, err)
	return route
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	db := testDatabase(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	route := seedRoute(t)
	station := seedStation(t)

	product, err := domain.NewProduct("prod-1", "Widget", "W-100", route, domain.PriorityHigh)
	require.NoError(t, err)
	entry := domain.NewStationHistoryEntry("he-1", product.ID, station, 1)
	product.OpenStation(entry)

	require.NoError(t, repo.Create(ctx, product, entry))

	found, err := repo.FindByID(ctx, "prod-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Widget", found.Name)
	assert.Equal(t, int64(1), found.Version)
	assert.Equal(t, "st-1", found.CurrentStationID)

	open, err := repo.FindOpenEntry(ctx, "prod-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "he-1", open.ID)
	assert.Equal(t, domain.EntryStatusPending, open.Status)

	// Creation queues an event for the relay
	pending, err := repo.OutboxRepository().FindUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, pending)
}

func TestProductRepository_UpdateVersionConflict(t *testing.T) {
	db := testDatabase(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	route := seedRoute(t)
	product, err := domain.NewProduct("prod-1", "Widget", "", route, domain.PriorityMedium)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, product, nil))

	stale, err := repo.FindByID(ctx, "prod-1")
	require.NoError(t, err)

	product.Name = "Widget v2"
	require.NoError(t, repo.Update(ctx, product, nil))
	assert.Equal(t, int64(2), product.Version)

	stale.Name = "lost update"
	err = repo.Update(ctx, stale, nil)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, int64(1), stale.Version, "version reverted on failure")
}

func TestProductRepository_ListFilters(t *testing.T) {
	db := testDatabase(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	route := seedRoute(t)
	for _, spec := range []struct {
		id       string
		name     string
		priority domain.ProductPriority
	}{
		{"prod-1", "Alpha Widget", domain.PriorityHigh},
		{"prod-2", "Beta Widget", domain.PriorityLow},
		{"prod-3", "Gamma Gadget", domain.PriorityHigh},
	} {
		p, err := domain.NewProduct(spec.id, spec.name, "", route, spec.priority)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, p, nil))
	}

	products, total, err := repo.List(ctx, domain.ProductQuery{
		Priority: string(domain.PriorityHigh),
		Now:      time.Now().UTC(),
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	products, total, err = repo.List(ctx, domain.ProductQuery{
		Search: "widget",
		Now:    time.Now().UTC(),
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	count, err := repo.CountByRouteID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestProductRepository_DeleteCascades(t *testing.T) {
	db := testDatabase(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	route := seedRoute(t)
	station := seedStation(t)
	product, err := domain.NewProduct("prod-1", "Widget", "", route, domain.PriorityMedium)
	require.NoError(t, err)
	entry := domain.NewStationHistoryEntry("he-1", product.ID, station, 1)
	product.OpenStation(entry)
	require.NoError(t, repo.Create(ctx, product, entry))

	product.MarkDeleted("operator-1")
	require.NoError(t, repo.Delete(ctx, product))

	found, err := repo.FindByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	history, err := repo.HistoryFor(ctx, "prod-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
