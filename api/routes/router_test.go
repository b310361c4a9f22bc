package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catalog-storefront/internal/cart"
	"github.com/angelmondragon/catalog-storefront/internal/notifications"
	products "github.com/angelmondragon/catalog-storefront/internal/products"
	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	"github.com/angelmondragon/catalog-storefront/pkg/config"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCatalog struct {
	products map[string]catalog.Product
}

func (s *stubCatalog) ListProducts(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error) {
	page := &catalog.ProductPage{CurrentPage: params.Page, TotalPages: 1}
	for _, p := range s.products {
		page.Products = append(page.Products, p)
	}
	page.TotalProducts = len(page.Products)
	return page, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, &catalog.HTTPError{Message: "Product not found", StatusCode: http.StatusNotFound}
	}
	return &p, nil
}

func (s *stubCatalog) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) (*catalog.Product, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return &catalog.HTTPError{Message: "Product not found", StatusCode: http.StatusNotFound}
	}
	delete(s.products, id)
	return nil
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"Lighting"}, nil
}

type testServer struct {
	handler http.Handler
	feed    *notifications.Feed
	store   *cart.Store
}

func newTestServer(t *testing.T, pinger stubPinger) testServer {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	reg := prometheus.NewRegistry()
	store := cart.NewStore(cart.WithMetrics(metrics.NewCartMetrics(reg)))
	feed := notifications.NewFeed(10, logg)
	client := &stubCatalog{products: map[string]catalog.Product{
		"1": {ID: "1", Name: "Desk Lamp", Category: "Lighting", Price: 19.99},
	}}
	svc, err := products.NewService(client, store, feed, logg)
	require.NoError(t, err)

	return testServer{
		handler: NewRouter(cfg, logg, pinger, reg, svc, store, feed),
		feed:    feed,
		store:   store,
	}
}

func (s testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, stubPinger{})
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health/ready", "").Code)

	down := newTestServer(t, stubPinger{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/health/ready", "").Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, stubPinger{})
	rec := srv.do(http.MethodGet, "/health/live", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestProductRoutes(t *testing.T) {
	srv := newTestServer(t, stubPinger{})

	rec := srv.do(http.MethodGet, "/api/v1/products?page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Desk Lamp"`)

	rec = srv.do(http.MethodGet, "/api/v1/products/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"categories":["Lighting"]`)

	rec = srv.do(http.MethodGet, "/api/v1/products/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found")

	rec = srv.do(http.MethodDelete, "/api/v1/products/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	recent := srv.feed.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, products.MessageDeleted, recent[0].Message)
	assert.Equal(t, notifications.LevelError, recent[1].Level)
}

func TestCartRoutes(t *testing.T) {
	srv := newTestServer(t, stubPinger{})

	rec := srv.do(http.MethodPost, "/api/v1/cart/items", `{"productId":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = srv.do(http.MethodPost, "/api/v1/cart/items", `{"productId":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	state := srv.store.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, "39.98", state.Total().String())

	rec = srv.do(http.MethodPatch, "/api/v1/cart/items/0", `{"increment":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.store.Quantity())

	rec = srv.do(http.MethodPost, "/api/v1/cart/drawer/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"drawerOpen":false`)

	rec = srv.do(http.MethodDelete, "/api/v1/cart/items/5", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodDelete, "/api/v1/cart/items/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"0"`)

	rec = srv.do(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestNotificationsRoute(t *testing.T) {
	srv := newTestServer(t, stubPinger{})
	srv.do(http.MethodGet, "/api/v1/products/missing", "")

	rec := srv.do(http.MethodGet, "/api/v1/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"level":"error"`)
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t, stubPinger{})
	srv.do(http.MethodPost, "/api/v1/cart/items", `{"productId":"1"}`)

	rec := srv.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart_mutations_total")
}
