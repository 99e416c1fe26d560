package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phkuod/product-tracking-sub000/internal/domain"
	apperrors "github.com/phkuod/product-tracking-sub000/pkg/errors"
)

type definitionFixture struct {
	service  *DefinitionService
	stations *fakeStationRepo
	routes   *fakeRouteRepo
	products *fakeProductRepo
}

func newDefinitionFixture() *definitionFixture {
	stations := newFakeStationRepo()
	routes := newFakeRouteRepo()
	products := newFakeProductRepo()

	return &definitionFixture{
		service:  NewDefinitionService(stations, routes, products, testLogger()),
		stations: stations,
		routes:   routes,
		products: products,
	}
}

func (f *definitionFixture) createStation(t *testing.T, name string) *StationDTO {
	t.Helper()
	dto, err := f.service.CreateStation(context.Background(), CreateStationCommand{
		Name:           name,
		Owner:          "line-1",
		CompletionRule: "all_filled",
		Fields: []FieldDefinitionInput{
			{Name: "Result", Type: "select", Options: []string{"pass", "fail"}, Required: true},
		},
	})
	require.NoError(t, err)
	return dto
}

func (f *definitionFixture) createRoute(t *testing.T, stationIDs ...string) *RouteDTO {
	t.Helper()
	positions := make([]RoutePositionInput, len(stationIDs))
	for i, id := range stationIDs {
		positions[i] = RoutePositionInput{StationID: id, SequenceOrder: i + 1}
	}
	dto, err := f.service.CreateRoute(context.Background(), CreateRouteCommand{
		Name:     "Main Line",
		Stations: positions,
	})
	require.NoError(t, err)
	return dto
}

func TestCreateStation(t *testing.T) {
	f := newDefinitionFixture()

	dto := f.createStation(t, "QC")

	assert.NotEmpty(t, dto.ID)
	require.Len(t, dto.Fields, 1)
	assert.NotEmpty(t, dto.Fields[0].ID, "field ids are generated when omitted")
	assert.Equal(t, []string{"pass", "fail"}, dto.Fields[0].Options)
}

func TestCreateStation_InvalidField(t *testing.T) {
	f := newDefinitionFixture()

	_, err := f.service.CreateStation(context.Background(), CreateStationCommand{
		Name:           "QC",
		Owner:          "qc-team",
		CompletionRule: "all_filled",
		Fields:         []FieldDefinitionInput{{Name: "Result", Type: "select"}},
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestUpdateStation_FieldImmutability(t *testing.T) {
	f := newDefinitionFixture()
	ctx := context.Background()
	station := f.createStation(t, "QC")
	fieldID := station.Fields[0].ID

	base := UpdateStationCommand{
		StationID:      station.ID,
		Name:           "QC v2",
		Owner:          "qc-team",
		CompletionRule: "custom",
	}

	t.Run("rename and new field allowed", func(t *testing.T) {
		cmd := base
		cmd.Fields = []FieldDefinitionInput{
			{ID: fieldID, Name: "Final Result", Type: "select", Options: []string{"pass", "fail", "rework"}},
			{Name: "Inspector", Type: "text"},
		}
		updated, err := f.service.UpdateStation(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, "QC v2", updated.Name)
		assert.Len(t, updated.Fields, 2)
	})

	t.Run("removing a field rejected", func(t *testing.T) {
		cmd := base
		cmd.Fields = nil
		_, err := f.service.UpdateStation(ctx, cmd)
		assert.Error(t, err)
	})

	t.Run("retyping a field rejected", func(t *testing.T) {
		cmd := base
		cmd.Fields = []FieldDefinitionInput{{ID: fieldID, Name: "Result", Type: "text"}}
		_, err := f.service.UpdateStation(ctx, cmd)
		assert.Error(t, err)
	})

	t.Run("removing a select option rejected", func(t *testing.T) {
		cmd := base
		cmd.Fields = []FieldDefinitionInput{
			{ID: fieldID, Name: "Result", Type: "select", Options: []string{"pass"}},
		}
		_, err := f.service.UpdateStation(ctx, cmd)
		assert.Error(t, err)
	})
}

func TestDeleteStation_RejectedWhileReferenced(t *testing.T) {
	f := newDefinitionFixture()
	ctx := context.Background()
	station := f.createStation(t, "QC")
	f.createRoute(t, station.ID)

	err := f.service.DeleteStation(ctx, station.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestDeleteStation_Unreferenced(t *testing.T) {
	f := newDefinitionFixture()
	ctx := context.Background()
	station := f.createStation(t, "QC")

	require.NoError(t, f.service.DeleteStation(ctx, station.ID))

	_, err := f.service.GetStation(ctx, station.ID)
	assert.Error(t, err)
}

func TestCreateRoute_UnknownStation(t *testing.T) {
	f := newDefinitionFixture()

	_, err := f.service.CreateRoute(context.Background(), CreateRouteCommand{
		Name:     "Main Line",
		Stations: []RoutePositionInput{{StationID: "st-missing", SequenceOrder: 1}},
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestUpdateRoute_InPlaceWhileUnreferenced(t *testing.T) {
	f := newDefinitionFixture()
	ctx := context.Background()
	a := f.createStation(t, "Assembly")
	b := f.createStation(t, "QC")
	route := f.createRoute(t, a.ID)

	updated, err := f.service.UpdateRoute(ctx, UpdateRouteCommand{
		RouteID: route.ID,
		Name:    "Main Line v2",
		Stations: []RoutePositionInput{
			{StationID: a.ID, SequenceOrder: 1},
			{StationID: b.ID, SequenceOrder: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, route.ID, updated.ID, "unreferenced route updates in place")
	assert.Equal(t, 1, updated.Version)
	assert.Len(t, updated.Stations, 2)
}

func TestUpdateRoute_NewVersionWhileReferenced(t *testing.T) {
	f := newDefinitionFixture()
	ctx := context.Background()
	a := f.createStation(t, "Assembly")
	b := f.createStation(t, "QC")
	route := f.createRoute(t, a.ID)

	routeDef, err := f.routes.FindByID(ctx, route.ID)
	require.NoError(t, err)
	product, err := domain.NewProduct("prod-1", "Widget", "", routeDef, domain.PriorityMedium)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(ctx, product, nil))

	next, err := f.service.UpdateRoute(ctx, UpdateRouteCommand{
		RouteID: route.ID,
		Name:    "Main Line v2",
		Stations: []RoutePositionInput{
			{StationID: a.ID, SequenceOrder: 1},
			{StationID: b.ID, SequenceOrder: 2},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, route.ID, next.ID, "referenced route edits create a new version")
	assert.Equal(t, 2, next.Version)

	// The in-flight product's frozen version is untouched and now linked
	// to its successor
	frozen, err := f.service.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, frozen.Stations, 1)
	assert.Equal(t, next.ID, frozen.SupersededBy)

	// A superseded version cannot be edited again
	_, err = f.service.UpdateRoute(ctx, UpdateRouteCommand{
		RouteID:  route.ID,
		Name:     "stale edit",
		Stations: []RoutePositionInput{{StationID: a.ID, SequenceOrder: 1}},
	})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}
