package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Figure is a rendered chart ready to be served.
type Figure struct {
	Body        []byte
	ContentType string
	RenderedAt  time.Time
}

// Stats reports cache effectiveness.
type Stats struct {
	Size      int   `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// FigureCache memoises rendered charts by query and collapses concurrent
// renders of the same query into one.
type FigureCache struct {
	lru    *LRUCache[Figure]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewFigureCache creates a cache holding at most size figures for ttl.
func NewFigureCache(size int, ttl time.Duration) *FigureCache {
	return &FigureCache{lru: NewLRUCache[Figure](size, ttl)}
}

// FigureKey identifies a chart query.
func FigureKey(kind string, year int, metric, format string, compare bool) string {
	return fmt.Sprintf("%s|%d|%s|%s|%t", kind, year, metric, format, compare)
}

// GetOrRender returns the cached figure for key, or calls render once for
// all concurrent callers and caches a successful result. The bool reports
// a cache hit.
func (c *FigureCache) GetOrRender(key string, render func() (Figure, error)) (Figure, bool, error) {
	if fig, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return fig, true, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A caller that missed just before the previous flight finished.
		if fig, ok := c.lru.Get(key); ok {
			return fig, nil
		}
		fig, err := render()
		if err != nil {
			return Figure{}, err
		}
		if fig.RenderedAt.IsZero() {
			fig.RenderedAt = time.Now()
		}
		c.lru.Set(key, fig)
		return fig, nil
	})
	if err != nil {
		return Figure{}, false, err
	}
	return v.(Figure), false, nil
}

// Purge drops every cached figure.
func (c *FigureCache) Purge() int {
	return c.lru.Purge()
}

// CleanExpired implements Cleaner.
func (c *FigureCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Stats returns the current counters.
func (c *FigureCache) Stats() Stats {
	return Stats{
		Size:      c.lru.Size(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.lru.Evictions(),
	}
}
