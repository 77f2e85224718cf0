package integrations

import (
	"errors"
	"net/http"
	"time"

	"github.com/scijava/javadoc-wrangler/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a resource doesn't exist in the repository.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for repository
// requests. Javadoc archives of large components run to tens of megabytes,
// hence the generous limit.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewCache creates a file-based cache with the given TTL in the default cache
// directory. See [httputil.NewCache] for details on cache location and behavior.
func NewCache(ttl time.Duration) (*httputil.Cache, error) {
	return httputil.NewCache("", ttl)
}
