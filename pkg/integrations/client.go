package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/fontmeta/pkg/cache"
	"github.com/matzehuels/fontmeta/pkg/observability"
)

// Options configures a [Client].
type Options struct {
	Namespace  string            // Cache key prefix, e.g. "googlefonts:"
	CacheTTL   time.Duration     // Lifetime of cached entries; 0 keeps them forever
	Timeout    time.Duration     // Per-request timeout; 0 uses DefaultTimeout
	Retries    int               // Extra attempts for network errors and 5xx responses
	RetryDelay time.Duration     // Initial backoff; 0 uses one second
	Headers    map[string]string // Sent with every request
}

// Client provides shared HTTP functionality for registry clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	retries    int
	retryDelay time.Duration
	headers    map[string]string
}

// NewClient creates a Client that caches through backend under opts.Namespace.
// A nil backend disables caching.
func NewClient(backend cache.Cache, opts Options) *Client {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		http:       NewHTTPClient(opts.Timeout),
		cache:      cache.NewScoped(backend, opts.Namespace),
		cacheTTL:   opts.CacheTTL,
		retries:    max(opts.Retries, 0),
		retryDelay: delay,
		headers:    opts.Headers,
	}
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// The returned bool reports whether v came from the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) (bool, error) {
	if !refresh {
		data, ok, err := c.cache.Get(ctx, key)
		if err == nil && ok && json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, "metadata")
			return true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "metadata")
	}
	if err := cache.Retry(ctx, c.retries+1, c.retryDelay, fetch); err != nil {
		return false, err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.cacheTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "metadata", len(data))
		}
	}
	return false, nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus accepts any 2xx status.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
