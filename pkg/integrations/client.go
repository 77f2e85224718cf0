package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scijava/javadoc-wrangler/pkg/httputil"
	"github.com/scijava/javadoc-wrangler/pkg/observability"
)

// Client provides shared HTTP functionality for repository clients.
// It handles caching, retry logic, and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   *httputil.Cache
	headers map[string]string
	backoff httputil.Backoff
}

// NewClient creates a Client with the given cache and default headers.
// A nil cache disables [Client.Cached] storage. Pass nil for headers if no
// default headers are needed.
func NewClient(cache *httputil.Cache, headers map[string]string) *Client {
	return &Client{
		http:    NewHTTPClient(),
		cache:   cache,
		headers: headers,
		backoff: httputil.DefaultBackoff,
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithBackoff replaces the retry policy.
func (c *Client) WithBackoff(b httputil.Backoff) *Client {
	c.backoff = b
	return c
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Retrying is left to the request helpers fetch calls.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if c.cache != nil && !refresh {
		if ok, _ := c.cache.Get(key, v); ok {
			observability.Cache().OnCacheHit(ctx, observability.CacheMetadata)
			return nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, observability.CacheMetadata)
	if err := fetch(); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Set(key, v)
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return httputil.Retry(ctx, c.backoff, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		return json.NewDecoder(body).Decode(v)
	})
}

// GetBytes performs an HTTP GET request and returns the whole body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := httputil.Retry(ctx, c.backoff, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return httputil.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
		}
		return nil
	})
	return data, err
}

// Download streams the body of url into w, retrying transient failures.
// open is called for every attempt and must return a fresh writer, so a
// partially written attempt is never mixed with the next one.
func (c *Client) Download(ctx context.Context, url string, open func() (io.Writer, error)) error {
	return httputil.Retry(ctx, c.backoff, func() error {
		body, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		w, err := open()
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, body); err != nil {
			return httputil.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
		}
		return nil
	})
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
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
