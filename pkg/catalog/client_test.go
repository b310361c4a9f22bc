package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/metrics"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient("http://catalog.test/api/", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	generations map[string]int64
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, generations: map[string]int64{}}
}

func cacheEntryKey(scope string, generation int64, key string) string {
	return fmt.Sprintf("%s|%d|%s", scope, generation, key)
}

func (m *memoryCache) Get(_ context.Context, scope, key string) ([]byte, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := m.generations[scope]
	v, ok := m.entries[cacheEntryKey(scope, gen, key)]
	return v, gen, ok, nil
}

func (m *memoryCache) Set(_ context.Context, scope, key string, generation int64, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheEntryKey(scope, generation, key)] = value
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, scope)
	m.generations[scope]++
	return nil
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, errBaseURLRequired) {
		t.Fatalf("expected base url error, got %v", err)
	}
}

func TestGetProductTransportFailure(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	product, err := client.GetProduct(context.Background(), "42")
	require.Error(t, err)
	assert.Nil(t, product)

	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 0, httpErr.StatusCode)
	assert.Equal(t, ConnectivityMessage, httpErr.Message)
	assert.True(t, httpErr.IsTransport())
	assert.Nil(t, httpErr.Payload)
}

func TestCreateProductErrorMessage(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"Price must be positive"}`), nil
	})

	_, err := client.CreateProduct(context.Background(), ProductInput{Name: "Lamp", Price: -1})
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "Price must be positive", httpErr.Message)
}

func TestCreateProductEnvelopeFieldErrors(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":"error","errors":{"price":"must be > 0"}}`), nil
	})

	_, err := client.CreateProduct(context.Background(), ProductInput{Name: "Lamp"})
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "must be > 0", httpErr.Message)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, map[string]any{"price": "must be > 0"}, httpErr.Payload)
}

func TestCreateProductEnvelopeErrorList(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"status":"error","errors":["Price must be positive"]}`), nil
	})

	product, err := client.CreateProduct(context.Background(), ProductInput{Name: "Lamp"})
	assert.Nil(t, product)
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "Price must be positive", httpErr.Message)
	assert.Equal(t, []any{"Price must be positive"}, httpErr.Payload)
}

func TestErrorWithoutMessageUsesGenericText(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `<html>oops</html>`), nil
	})

	_, err := client.ListProducts(context.Background(), ListParams{Page: 1})
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, GenericMessage, httpErr.Message)
}

func TestErrorCopiesPayloadAndResponseCode(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message":"Product not found","payload":{"id":"7"},"responseCode":"1004"}`), nil
	})

	err := client.DeleteProduct(context.Background(), "7")
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "Product not found", httpErr.Message)
	assert.Equal(t, map[string]any{"id": "7"}, httpErr.Payload)
	require.NotNil(t, httpErr.ResponseCode)
	assert.Equal(t, 1004, *httpErr.ResponseCode)

	dump := pkgerrors.Dump(err)
	require.NotNil(t, dump.UpstreamStatus)
	assert.Equal(t, http.StatusNotFound, *dump.UpstreamStatus)
}

func TestListProductsSuccessUnwrapsBody(t *testing.T) {
	var capturedURL string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{"products":[{"id":1,"name":"Lamp","price":19.5},{"id":"b-2","name":"Desk","price":120}],"currentPage":2,"totalPages":3,"totalProducts":25}`), nil
	})

	minPrice := 10.0
	page, err := client.ListProducts(context.Background(), ListParams{Page: 2, Search: " lamp ", MinPrice: &minPrice, Order: "DESC"})
	require.NoError(t, err)

	assert.Equal(t, "http://catalog.test/api/products?minPrice=10&order=desc&page=2&search=lamp", capturedURL)
	require.Len(t, page.Products, 2)
	assert.Equal(t, ProductID("1"), page.Products[0].ID)
	assert.Equal(t, ProductID("b-2"), page.Products[1].ID)
	assert.Equal(t, 25, page.TotalProducts)
	assert.True(t, page.Page().HasPrevious())
	assert.True(t, page.Page().HasNext())
}

func TestListProductsRejectsInvalidFilters(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	minPrice, maxPrice := 50.0, 10.0
	_, err := client.ListProducts(context.Background(), ListParams{MinPrice: &minPrice, MaxPrice: &maxPrice, Order: "sideways"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "maxPrice")
	assert.Contains(t, details, "order")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestUpdateProductUsesPut(t *testing.T) {
	var method, path string
	var sent map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		method = req.Method
		path = req.URL.Path
		if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("missing content type")
		}
		return jsonResponse(http.StatusOK, `{"id":9,"name":"Chair","price":45}`), nil
	})

	price := 45.0
	product, err := client.UpdateProduct(context.Background(), "9", ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/products/9", path)
	assert.Equal(t, map[string]any{"price": 45.0}, sent)
	assert.Equal(t, "Chair", product.Name)
}

func TestUpdateProductRejectsEmptyPatch(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	_, err := client.UpdateProduct(context.Background(), "9", ProductPatch{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = client.GetProduct(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListCategoriesAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`["Clothing","Electronics"]`,
		`{"categories":[{"name":"Clothing"},"Electronics"," "]}`,
	}
	for _, body := range bodies {
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, body), nil
		})
		got, err := client.ListCategories(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Clothing", "Electronics"}, got)
	}
}

func TestUndecodableSuccessBody(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `not json`), nil
	})

	_, err := client.GetProduct(context.Background(), "1")
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, GenericMessage, httpErr.Message)
}

func TestReadsAreCachedUntilWrite(t *testing.T) {
	var gets, posts int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			return jsonResponse(http.StatusOK, `{"id":1,"name":"Lamp","price":10}`), nil
		}
		atomic.AddInt32(&posts, 1)
		return jsonResponse(http.StatusCreated, `{"id":2,"name":"Desk","price":20}`), nil
	}, WithCache(newMemoryCache()))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.GetProduct(ctx, "1")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&gets))

	_, err := client.CreateProduct(ctx, ProductInput{Name: "Desk", Price: 20})
	require.NoError(t, err)

	_, err = client.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&gets))
	assert.EqualValues(t, 1, atomic.LoadInt32(&posts))
}

func TestFailedWriteKeepsCache(t *testing.T) {
	cache := newMemoryCache()
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"nope"}`), nil
	}, WithCache(cache))

	_, err := client.CreateProduct(context.Background(), ProductInput{})
	require.Error(t, err)
	assert.Empty(t, cache.invalidated)
}

func TestDedupedReadHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		close(started)
		<-release
		return jsonResponse(http.StatusOK, `{"id":1,"name":"Lamp"}`), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := client.GetProduct(context.Background(), "1")
		done <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetProduct(ctx, "1")
	httpErr, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.True(t, httpErr.IsTransport())

	close(release)
	require.NoError(t, <-done)
}

func TestDedupedReadSurvivesFirstCallerCancel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		once.Do(func() { close(started) })
		<-release
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		return jsonResponse(http.StatusOK, `{"id":42,"name":"Lamp"}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.GetProduct(ctx, "42")
		first <- err
	}()
	<-started

	second := make(chan *Product, 1)
	secondErr := make(chan error, 1)
	go func() {
		product, err := client.GetProduct(context.Background(), "42")
		second <- product
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	httpErr, ok := AsHTTPError(<-first)
	require.True(t, ok)
	assert.True(t, httpErr.IsTransport())

	close(release)
	require.NoError(t, <-secondErr)
	assert.Equal(t, "Lamp", (<-second).Name)
}

func TestReadInFlightDuringUpdateIsNotCached(t *testing.T) {
	var gets int32
	release := make(chan struct{})
	started := make(chan struct{})
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPut {
			return jsonResponse(http.StatusOK, `{"id":1,"name":"new"}`), nil
		}
		if atomic.AddInt32(&gets, 1) == 1 {
			close(started)
			<-release
			return jsonResponse(http.StatusOK, `{"id":1,"name":"old"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"id":1,"name":"new"}`), nil
	}, WithCache(newMemoryCache()))

	ctx := context.Background()
	stale := make(chan *Product, 1)
	go func() {
		product, err := client.GetProduct(ctx, "1")
		if err != nil {
			t.Errorf("in-flight read: %v", err)
		}
		stale <- product
	}()
	<-started

	name := "new"
	_, err := client.UpdateProduct(ctx, "1", ProductPatch{Name: &name})
	require.NoError(t, err)

	close(release)
	require.NotNil(t, <-stale)

	product, err := client.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "new", product.Name)
	assert.EqualValues(t, 2, atomic.LoadInt32(&gets))
}

func TestFailuresAreCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	}, WithMetrics(metrics.NewCatalogMetrics(reg)))

	_, _ = client.GetProduct(context.Background(), "1")

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "catalog_request_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["operation"] == opGetProduct && labels["kind"] == string(kindTransport) {
				found = m.GetCounter().GetValue() == 1
			}
		}
	}
	assert.True(t, found, "expected transport failure counter")
}
