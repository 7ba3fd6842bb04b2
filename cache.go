package inkpress

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// maxCachedPages bounds the cache; the least recently used page is evicted.
const maxCachedPages = 512

// PageCache is an in-memory cache of rendered published pages with TTL.
// A page is regenerated on the first request after it expires, or after
// Invalidate. Preview renders never go through it.
type PageCache struct {
	mu      sync.RWMutex
	entries *lru.Cache[string, cachedPage]
	gen     uint64
	ttl     time.Duration
	now     func() time.Time

	flight singleflight.Group
}

type cachedPage struct {
	body    []byte
	header  map[string]string
	fetched time.Time
}

type renderedPage struct {
	body   []byte
	header map[string]string
}

// NewPageCache creates an empty PageCache. A ttl <= 0 disables caching.
func NewPageCache(ttl time.Duration) *PageCache {
	return newPageCache(ttl, maxCachedPages)
}

func newPageCache(ttl time.Duration, size int) *PageCache {
	entries, err := lru.New[string, cachedPage](size)
	if err != nil {
		// Only a non-positive size fails.
		entries, _ = lru.New[string, cachedPage](1)
	}
	return &PageCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *PageCache) valid(p cachedPage) bool {
	return c.ttl > 0 && c.now().Sub(p.fetched) < c.ttl
}

// Invalidate clears the cache so the next read of every page renders fresh.
// Renders already in flight are not stored.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.entries.Purge()
	c.mu.Unlock()
}

// Len reports the number of cached pages, fresh or not.
func (c *PageCache) Len() int {
	return c.entries.Len()
}

// RenderFunc produces a page body plus any response headers that must be
// replayed with it.
type RenderFunc func() (body []byte, header map[string]string, err error)

func (c *PageCache) lookup(key string) (cachedPage, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries.Get(key)
	return p, c.gen, ok && c.valid(p)
}

// GetOrRender returns the cached page for key, rendering it when missing or
// stale. Concurrent misses on one key share a single render, and the lock
// is never held while rendering, so a slow page does not hold up others.
// Failed renders are not cached.
func (c *PageCache) GetOrRender(key string, render RenderFunc) ([]byte, map[string]string, error) {
	if p, _, ok := c.lookup(key); ok {
		return p.body, p.header, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		p, gen, ok := c.lookup(key)
		if ok {
			return renderedPage{body: p.body, header: p.header}, nil
		}
		body, header, err := render()
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			if c.gen == gen {
				c.entries.Add(key, cachedPage{body: body, header: header, fetched: c.now()})
			}
			c.mu.Unlock()
		}
		return renderedPage{body: body, header: header}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	page := v.(renderedPage)
	return page.body, page.header, nil
}
