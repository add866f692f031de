package raster

import (
	"sync"

	"uv-mask-maker/internal/uv"
)

type cacheKey struct {
	src  *uv.Analysis
	w, h int
}

// Cache memoizes label maps by (analysis, width, height). It is safe for
// concurrent use. Callers must Invalidate when they replace the analysis if
// they want the old maps released early.
type Cache struct {
	mu    sync.RWMutex
	items map[cacheKey]*LabelMap
}

// NewCache creates an empty label-map cache.
func NewCache() *Cache {
	return &Cache{items: make(map[cacheKey]*LabelMap)}
}

// Get returns the cached label map for (a, w, h), building it on a miss.
func (c *Cache) Get(a *uv.Analysis, w, h int) (*LabelMap, error) {
	key := cacheKey{a, w, h}

	// Fast path: read lock
	c.mu.RLock()
	if lm, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return lm, nil
	}
	c.mu.RUnlock()

	lm, err := BuildLabelMap(a, w, h)
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.items[key]; ok {
		return cached, nil
	}
	c.items[key] = lm
	return lm, nil
}

// Invalidate drops every cached map.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = make(map[cacheKey]*LabelMap)
	c.mu.Unlock()
}

// Len returns the number of cached maps.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
