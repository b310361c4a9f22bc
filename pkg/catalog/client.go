package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/metrics"
)

const (
	defaultTimeout         = 10 * time.Second
	responseBodyLimit int64 = 4 << 20
)

var errBaseURLRequired = errors.New("catalog base url is required")

// Cache stores raw catalog read responses grouped by scope. Get reports the
// scope generation it looked under and Set writes under the generation it is
// given, so a response fetched before an invalidation stays invisible after it.
type Cache interface {
	Get(ctx context.Context, scope, key string) (value []byte, generation int64, found bool, err error)
	Set(ctx context.Context, scope, key string, generation int64, value []byte) error
	Invalidate(ctx context.Context, scope string) error
}

// Client talks to the remote catalog API and normalizes every failure into
// an *HTTPError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	metrics    *metrics.CatalogMetrics
	logg       *logger.Logger
	reads      *singleflight.Group
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithCache enables read-through caching of list, detail and category reads.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithReadDedupe collapses identical in-flight reads into one request.
func WithReadDedupe(enabled bool) Option {
	return func(c *Client) {
		if enabled {
			c.reads = &singleflight.Group{}
		} else {
			c.reads = nil
		}
	}
}

// NewClient builds a catalog client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		reads:      &singleflight.Group{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// read performs a cached, de-duplicated GET and decodes the body into out.
func (c *Client) read(ctx context.Context, operation, scope, path string, query url.Values, out any) error {
	key := path
	if encoded := query.Encode(); encoded != "" {
		key = path + "?" + encoded
	}

	lookup := c.cacheGet(ctx, scope, key)
	if lookup.hit {
		return decodeBody(lookup.body, out)
	}

	// Reads started under different generations never share a fetch.
	flightKey := strconv.FormatInt(lookup.generation, 10) + "|" + key
	body, err := c.dedupedGet(ctx, operation, flightKey, path, query)
	if err != nil {
		return err
	}

	if lookup.cacheable {
		c.cacheSet(ctx, scope, key, lookup.generation, body)
	}
	return decodeBody(body, out)
}

// dedupedGet shares one upstream GET between callers of the same key. The
// shared request ignores the cancellation of whichever caller started it;
// each caller still stops waiting when its own context ends.
func (c *Client) dedupedGet(ctx context.Context, operation, key, path string, query url.Values) ([]byte, error) {
	if c.reads == nil {
		return c.do(ctx, operation, http.MethodGet, path, query, nil)
	}

	shared := context.WithoutCancel(ctx)
	ch := c.reads.DoChan(key, func() (any, error) {
		return c.do(shared, operation, http.MethodGet, path, query, nil)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, transportError(ctx.Err())
	}
}

// write performs a mutating request and invalidates cached reads on success.
func (c *Client) write(ctx context.Context, operation, method, scope, path string, payload any, out any) error {
	body, err := c.do(ctx, operation, method, path, nil, payload)
	if err != nil {
		return err
	}
	c.invalidate(ctx, scope)
	return decodeBody(body, out)
}

// do sends one request and returns the body of a successful response.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, payload any) ([]byte, error) {
	start := time.Now()
	defer func() { c.metrics.ObserveDuration(operation, time.Since(start)) }()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+operation+" request")
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), reader)
	if err != nil {
		return nil, c.fail(ctx, operation, transportError(err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(ctx, operation, transportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, c.fail(ctx, operation, transportError(err))
	}

	if httpErr := normalize(resp.StatusCode, body); httpErr != nil {
		return nil, c.fail(ctx, operation, httpErr)
	}
	return body, nil
}

func (c *Client) fail(ctx context.Context, operation string, httpErr *HTTPError) *HTTPError {
	c.metrics.IncFailure(operation, string(httpErr.kind))
	if c.logg != nil {
		ctx = c.logg.WithFields(c.logg.WithOperation(ctx, operation), map[string]any{
			"status_code": httpErr.StatusCode,
			"kind":        string(httpErr.kind),
		})
		c.logg.Warn(ctx, "catalog.request_failed")
	}
	return httpErr
}

type cacheLookup struct {
	body       []byte
	generation int64
	hit        bool
	cacheable  bool
}

func (c *Client) cacheGet(ctx context.Context, scope, key string) cacheLookup {
	if c.cache == nil {
		return cacheLookup{}
	}
	body, generation, ok, err := c.cache.Get(ctx, scope, key)
	switch {
	case err != nil:
		c.metrics.IncCacheLookup("error")
		if c.logg != nil {
			c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "catalog.cache_get_failed", err)
		}
		return cacheLookup{}
	case !ok:
		c.metrics.IncCacheLookup("miss")
		return cacheLookup{generation: generation, cacheable: true}
	}
	c.metrics.IncCacheLookup("hit")
	return cacheLookup{body: body, generation: generation, hit: true, cacheable: true}
}

func (c *Client) cacheSet(ctx context.Context, scope, key string, generation int64, body []byte) {
	if err := c.cache.Set(ctx, scope, key, generation, body); err != nil && c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "catalog.cache_set_failed", err)
	}
}

func (c *Client) invalidate(ctx context.Context, scope string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, scope); err != nil && c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_scope", scope), "catalog.cache_invalidate_failed", err)
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	path = strings.TrimLeft(path, "/")
	u := fmt.Sprintf("%s/%s", c.baseURL, path)
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// decodeBody unmarshals a successful body. A body that is not valid JSON for
// out is reported as a 502 so callers still receive the normalized shape.
func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &HTTPError{
			Message:    GenericMessage,
			StatusCode: http.StatusBadGateway,
			kind:       kindDecode,
			cause:      err,
		}
	}
	return nil
}
