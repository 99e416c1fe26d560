package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phkuod/product-tracking-sub000/internal/application"
	"github.com/phkuod/product-tracking-sub000/internal/domain"
	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/metrics"
	"github.com/phkuod/product-tracking-sub000/pkg/middleware"
)

type memProductRepo struct {
	products map[string]*domain.Product
	entries  map[string]*domain.StationHistoryEntry
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{
		products: make(map[string]*domain.Product),
		entries:  make(map[string]*domain.StationHistoryEntry),
	}
}

func (r *memProductRepo) Create(ctx context.Context, product *domain.Product, firstEntry *domain.StationHistoryEntry) error {
	r.products[product.ID] = product
	if firstEntry != nil {
		r.entries[firstEntry.ID] = firstEntry
	}
	product.ClearEvents()
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product, entries []*domain.StationHistoryEntry) error {
	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrConcurrentModification
	}
	product.Version++
	r.products[product.ID] = product
	for _, entry := range entries {
		r.entries[entry.ID] = entry
	}
	product.ClearEvents()
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	return r.products[productID], nil
}

func (r *memProductRepo) List(ctx context.Context, query domain.ProductQuery) ([]*domain.Product, int64, error) {
	var out []*domain.Product
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memProductRepo) Delete(ctx context.Context, product *domain.Product) error {
	delete(r.products, product.ID)
	for id, entry := range r.entries {
		if entry.ProductID == product.ID {
			delete(r.entries, id)
		}
	}
	return nil
}

func (r *memProductRepo) FindOpenEntry(ctx context.Context, productID string) (*domain.StationHistoryEntry, error) {
	for _, entry := range r.entries {
		if entry.ProductID == productID && !entry.Status.IsTerminal() {
			return entry, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) HistoryFor(ctx context.Context, productID string) ([]*domain.StationHistoryEntry, error) {
	var out []*domain.StationHistoryEntry
	for _, entry := range r.entries {
		if entry.ProductID == productID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceOrder < out[j].SequenceOrder })
	return out, nil
}

func (r *memProductRepo) CountByRouteID(ctx context.Context, routeID string) (int64, error) {
	var count int64
	for _, p := range r.products {
		if p.RouteID == routeID {
			count++
		}
	}
	return count, nil
}

type memRouteRepo struct {
	routes map[string]*domain.RouteDefinition
}

func (r *memRouteRepo) Save(ctx context.Context, route *domain.RouteDefinition) error {
	r.routes[route.ID] = route
	return nil
}

func (r *memRouteRepo) Update(ctx context.Context, route *domain.RouteDefinition) error {
	r.routes[route.ID] = route
	return nil
}

func (r *memRouteRepo) FindByID(ctx context.Context, routeID string) (*domain.RouteDefinition, error) {
	return r.routes[routeID], nil
}

func (r *memRouteRepo) FindAll(ctx context.Context) ([]*domain.RouteDefinition, error) {
	var out []*domain.RouteDefinition
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out, nil
}

type memStationRepo struct {
	stations map[string]*domain.StationDefinition
}

func (r *memStationRepo) Save(ctx context.Context, station *domain.StationDefinition) error {
	r.stations[station.ID] = station
	return nil
}

func (r *memStationRepo) Update(ctx context.Context, station *domain.StationDefinition) error {
	r.stations[station.ID] = station
	return nil
}

func (r *memStationRepo) FindByID(ctx context.Context, stationID string) (*domain.StationDefinition, error) {
	return r.stations[stationID], nil
}

func (r *memStationRepo) FindByIDs(ctx context.Context, stationIDs []string) (map[string]*domain.StationDefinition, error) {
	found := make(map[string]*domain.StationDefinition)
	for _, id := range stationIDs {
		if st, ok := r.stations[id]; ok {
			found[id] = st
		}
	}
	return found, nil
}

func (r *memStationRepo) FindAll(ctx context.Context) ([]*domain.StationDefinition, error) {
	var out []*domain.StationDefinition
	for _, st := range r.stations {
		out = append(out, st)
	}
	return out, nil
}

func (r *memStationRepo) Delete(ctx context.Context, stationID string) error {
	delete(r.stations, stationID)
	return nil
}

// newTestRouter builds a router over in-memory repositories seeded with one
// two-position route that visits station st-1 twice
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()

	field, err := domain.NewFieldDefinition("f1", "Result", domain.FieldTypeText, true, nil, "")
	require.NoError(t, err)
	station, err := domain.NewStationDefinition("st-1", "Assembly", "line-1", domain.CompletionRuleAllFilled, 60, []domain.FieldDefinition{*field})
	require.NoError(t, err)
	route, err := domain.NewRouteDefinition("rt-1", "Main Line", "", []domain.RoutePosition{
		{StationID: "st-1", SequenceOrder: 1},
		{StationID: "st-1", SequenceOrder: 2},
	})
	require.NoError(t, err)

	stations := &memStationRepo{stations: map[string]*domain.StationDefinition{station.ID: station}}
	routes := &memRouteRepo{routes: map[string]*domain.RouteDefinition{route.ID: route}}
	products := newMemProductRepo()

	logConfig := logging.DefaultConfig("test")
	logConfig.Output = io.Discard
	logger := logging.New(logConfig)
	m := metrics.New(metrics.DefaultConfig("test"))

	tracking := application.NewTrackingService(products, routes, stations, logger, m)
	definitions := application.NewDefinitionService(stations, routes, products, logger)

	router := gin.New()
	RegisterRoutes(router, NewHandlers(tracking, logger), NewDefinitionHandlers(definitions, logger))
	return router
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateProductEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","model":"W-100","routeId":"rt-1","priority":"high"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "st-1", body["currentStationId"])
	assert.Equal(t, "normal", body["status"])
	assert.Equal(t, float64(0), body["progressPercent"])
}

func TestCreateProductEndpoint_MissingName(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/products", `{"routeId":"rt-1"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details, _ := body["details"].(map[string]any)
	assert.Contains(t, details, "name")
}

func TestGetProductEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodGet, "/api/v1/products/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "RESOURCE_NOT_FOUND", body["code"])
}

func TestAdvanceProductEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","routeId":"rt-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	productID := decodeJSON(t, rec)["id"].(string)

	// Missing required field data leaves the visit open
	rec = performRequest(router, http.MethodPost, "/api/v1/products/"+productID+"/advance",
		`{"fieldData":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	// Complete submission closes position 1 and opens position 2
	rec = performRequest(router, http.MethodPost, "/api/v1/products/"+productID+"/advance",
		`{"fieldData":{"f1":"pass"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeJSON(t, rec)

	closed, _ := body["closedEntry"].(map[string]any)
	require.NotNil(t, closed)
	assert.Equal(t, "completed", closed["status"])

	opened, _ := body["openedEntry"].(map[string]any)
	require.NotNil(t, opened)
	assert.Equal(t, float64(2), opened["sequenceOrder"])

	product, _ := body["product"].(map[string]any)
	require.NotNil(t, product)
	assert.Equal(t, float64(50), product["progressPercent"])
}

func TestAdvanceProductEndpoint_InvalidOutcome(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/products/prod-x/advance",
		`{"outcome":"cancelled"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestBulkUpdateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/products",
		`{"name":"Widget","routeId":"rt-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	productID := decodeJSON(t, rec)["id"].(string)

	// The static /bulk segment must not be captured as a product id
	rec = performRequest(router, http.MethodPatch, "/api/v1/products/bulk",
		`{"productIds":["`+productID+`","missing"],"update":{"priority":"low"}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, float64(1), body["updatedCount"])
	errs, _ := body["errors"].([]any)
	require.Len(t, errs, 1)
}

func TestListProductsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"Alpha", "Beta"} {
		rec := performRequest(router, http.MethodPost, "/api/v1/products",
			`{"name":"`+name+`","routeId":"rt-1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := performRequest(router, http.MethodGet, "/api/v1/products?page=1&pageSize=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	data, _ := body["data"].([]any)
	assert.Len(t, data, 2)
	assert.Equal(t, float64(2), body["totalItems"])
	assert.Equal(t, float64(1), body["page"])
}

func TestStationEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := performRequest(router, http.MethodPost, "/api/v1/stations",
		`{"name":"QC","owner":"qc-team","completionRule":"custom","fields":[{"name":"Verdict","type":"select","options":["pass","fail"]}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	stationID := decodeJSON(t, rec)["id"].(string)

	rec = performRequest(router, http.MethodGet, "/api/v1/stations/"+stationID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "QC", decodeJSON(t, rec)["name"])

	rec = performRequest(router, http.MethodGet, "/api/v1/stations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := decodeJSON(t, rec)["data"].([]any)
	assert.Len(t, data, 2, "seeded station plus the new one")
}
