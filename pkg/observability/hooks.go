// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; the defaults are
// no-ops, so nothing is recorded unless the application opts in at startup:
//
//	func main() {
//	    counters := observability.NewCounters()
//	    observability.SetPipelineHooks(counters)
//	    observability.SetCacheHooks(counters)
//	    // ... run the pipeline, then inspect counters.Snapshot()
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnBOMStart(ctx, bom.String())
//	// ... process components ...
//	observability.Pipeline().OnBOMComplete(ctx, bom.String(), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Component outcomes reported through [PipelineHooks.OnComponentComplete].
const (
	OutcomeProcessed = "processed" // unpacked (or reused) and aggregated
	OutcomeAbsent    = "absent"    // no javadoc archive published
	OutcomeInvalid   = "invalid"   // coordinate rejected
	OutcomeFailed    = "failed"    // component-level failure, skipped
)

// Cache kinds reported through [CacheHooks].
const (
	CacheJavadoc  = "javadoc"  // jar cache
	CacheMetadata = "metadata" // repository metadata cache
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the BOM pipeline.
type PipelineHooks interface {
	OnBOMStart(ctx context.Context, bom string)
	OnBOMComplete(ctx context.Context, bom string, duration time.Duration, err error)

	OnComponentComplete(ctx context.Context, bom, component, outcome string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a lookup served from the cache.
	OnCacheHit(ctx context.Context, kind string)

	// OnCacheNegativeHit records a lookup answered by a "known absent" marker.
	OnCacheNegativeHit(ctx context.Context, kind string)

	// OnCacheMiss records a lookup that needed an external fetch.
	OnCacheMiss(ctx context.Context, kind string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBOMStart(context.Context, string)                          {}
func (NoopPipelineHooks) OnBOMComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnComponentComplete(context.Context, string, string, string, time.Duration) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)         {}
func (NoopCacheHooks) OnCacheNegativeHit(context.Context, string) {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)        {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
