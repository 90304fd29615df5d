// vidstore/internal/cache/cache.go

// Package cache keeps whole stored-file buffers in memory between the
// ranged requests of one viewing session. Entries are evicted purely by
// idleness: an entry not read for longer than the TTL is dropped by the
// next sweep. There is no size bound.
//
// A single mutex guards the map and is only held for map access, never
// across a disk read. Buffers handed out are shared snapshots and must
// not be modified by callers.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the idle time after which an entry is evicted.
const DefaultTTL = 60 * time.Second

type entry struct {
	buffer     []byte
	lastAccess time.Time
}

type Cache struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry

	loads singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the idle time-to-live. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// TTL returns the configured idle time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached buffer for path and refreshes its access time.
func (c *Cache) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	e.lastAccess = c.now()
	return e.buffer, true
}

// Put inserts or replaces the buffer for path. The last Put wins.
func (c *Cache) Put(path string, buffer []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &entry{
		buffer:     buffer,
		lastAccess: c.now(),
	}
}

// Remove drops path from the cache.
func (c *Cache) Remove(path string) {
	c.loads.Forget(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts every entry idle for longer than the TTL at now and
// returns the number evicted.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for path, e := range c.entries {
		if now.Sub(e.lastAccess) > c.ttl {
			delete(c.entries, path)
			evicted++
			c.logger.Debug("cache entry expired", "path", path)
		}
	}
	return evicted
}

// GetOrLoad returns the cached buffer for path, calling load on a miss
// and caching its result. Concurrent misses for one path share a load.
func (c *Cache) GetOrLoad(ctx context.Context, path string, load func() ([]byte, error)) ([]byte, error) {
	if buf, ok := c.Get(path); ok {
		return buf, nil
	}

	ch := c.loads.DoChan(path, func() (any, error) {
		if buf, ok := c.Get(path); ok {
			return buf, nil
		}
		c.logger.Debug("cache miss", "path", path)
		buf, err := load()
		if err != nil {
			return nil, err
		}
		c.Put(path, buf)
		return buf, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		buf, _ := res.Val.([]byte)
		return buf, nil
	}
}

// Run sweeps every TTL/2 until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	interval := c.ttl / 2
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(c.now()); n > 0 {
				c.logger.Info("cache swept", "evicted", n, "remaining", c.Len())
			}
		}
	}
}
