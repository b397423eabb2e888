package render

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/doceo/internal/logger"
)

// SharedStore is an optional second tier that lets several processes reuse
// each other's assets. Errors from it are logged and otherwise ignored.
type SharedStore interface {
	Load(ctx context.Context, key Key) (*Asset, bool, error)
	Save(ctx context.Context, asset *Asset) error
}

// Cache memoizes Renderer output per Key.
//
// Concurrent requests for the same key share one computation. A computation
// runs to completion even when every caller has given up, so its result is
// still retained for the next request. Failures are handed to every waiting
// caller and then forgotten.
type Cache struct {
	renderer Renderer
	shared   SharedStore
	log      *logger.Logger

	group singleflight.Group

	mu       sync.Mutex
	resolved *lru.Cache

	computations atomic.Int64
}

// Option customizes a Cache.
type Option func(*Cache)

// WithSharedStore adds a second-tier store consulted before rendering.
func WithSharedStore(s SharedStore) Option {
	return func(c *Cache) { c.shared = s }
}

// WithLogger sets the cache's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// NewCache creates a cache in front of r. capacity bounds the number of
// resolved assets kept in memory with least-recently-used eviction; zero
// keeps every asset for the life of the process.
func NewCache(r Renderer, capacity int, opts ...Option) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	c := &Cache{
		renderer: r,
		resolved: lru.New(capacity),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrNop(c.log).With("component", "render")
	return c
}

// Get returns the asset for (expression, display, scale), computing it at
// most once across concurrent callers. If ctx ends first, Get returns
// ctx.Err() and the computation carries on in the background.
func (c *Cache) Get(ctx context.Context, expression string, display bool, scale float64) (*Asset, error) {
	key := Key{Expression: expression, Display: display, Scale: scale}
	if a, ok := c.lookup(key); ok {
		return a, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.compute(detached, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Asset), nil
	}
}

// Lookup returns an already resolved asset without waiting.
func (c *Cache) Lookup(expression string, display bool, scale float64) (*Asset, bool) {
	return c.lookup(Key{Expression: expression, Display: display, Scale: scale})
}

// Len reports the number of resolved assets held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved.Len()
}

// Computations reports how many renders or shared-store loads have started.
func (c *Cache) Computations() int64 {
	return c.computations.Load()
}

func (c *Cache) lookup(key Key) (*Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.resolved.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Asset), true
}

func (c *Cache) compute(ctx context.Context, key Key) (*Asset, error) {
	// A caller may have missed the map just before the previous flight for
	// this key stored its result.
	if a, ok := c.lookup(key); ok {
		return a, nil
	}
	c.computations.Add(1)

	if c.shared != nil {
		a, ok, err := c.shared.Load(ctx, key)
		switch {
		case err != nil:
			c.log.Warn("shared asset load failed", "key", key.String(), "error", err)
		case ok:
			c.store(a)
			return a, nil
		}
	}

	svg, err := c.renderer.Render(ctx, key)
	if err != nil {
		c.log.Debug("render failed", "key", key.String(), "error", err)
		return nil, &ErrRender{Key: key, Err: err}
	}

	w, h := Dimensions(svg)
	a := &Asset{Key: key, SVG: svg, Width: w, Height: h}
	c.store(a)

	if c.shared != nil {
		if err := c.shared.Save(ctx, a); err != nil {
			c.log.Warn("shared asset save failed", "key", key.String(), "error", err)
		}
	}
	return a, nil
}

func (c *Cache) store(a *Asset) {
	c.mu.Lock()
	c.resolved.Add(a.Key, a)
	c.mu.Unlock()
}
