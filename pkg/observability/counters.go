package observability

import (
	"context"
	"sync"
	"time"
)

// Counters tallies pipeline and cache events. It implements both
// [PipelineHooks] and [CacheHooks] and is safe for concurrent use, since
// components may be processed by several workers.
type Counters struct {
	mu   sync.Mutex
	snap Snapshot
}

// Snapshot is a point-in-time copy of [Counters].
type Snapshot struct {
	BOMs       int
	BOMErrors  int
	Components map[string]int // by outcome
	CacheHits  map[string]int // by kind
	Negative   map[string]int
	Misses     map[string]int
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{snap: newSnapshot()}
}

func newSnapshot() Snapshot {
	return Snapshot{
		Components: map[string]int{},
		CacheHits:  map[string]int{},
		Negative:   map[string]int{},
		Misses:     map[string]int{},
	}
}

func (c *Counters) OnBOMStart(context.Context, string) {}

func (c *Counters) OnBOMComplete(_ context.Context, _ string, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.BOMs++
	if err != nil {
		c.snap.BOMErrors++
	}
}

func (c *Counters) OnComponentComplete(_ context.Context, _, _, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Components[outcome]++
}

func (c *Counters) OnCacheHit(_ context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CacheHits[kind]++
}

func (c *Counters) OnCacheNegativeHit(_ context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Negative[kind]++
}

func (c *Counters) OnCacheMiss(_ context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Misses[kind]++
}

// Snapshot returns a copy of the current counts.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := newSnapshot()
	out.BOMs = c.snap.BOMs
	out.BOMErrors = c.snap.BOMErrors
	for k, v := range c.snap.Components {
		out.Components[k] = v
	}
	for k, v := range c.snap.CacheHits {
		out.CacheHits[k] = v
	}
	for k, v := range c.snap.Negative {
		out.Negative[k] = v
	}
	for k, v := range c.snap.Misses {
		out.Misses[k] = v
	}
	return out
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
)
