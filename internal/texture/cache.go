package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe image cache keyed by file path.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a cache. index may be nil when only Load is used.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a texture by name. Returns nil if not found.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	if c.index == nil {
		return nil
	}
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}
	img, _ := c.Load(path)
	return img
}

// Load decodes path once and returns the shared result. Failures are
// cached too. Callers must not modify the returned image.
func (c *Cache) Load(path string) (*image.NRGBA, error) {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := LoadImage(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// LoadResized returns path decoded and scaled to w x h. Scaled copies are
// not cached.
func (c *Cache) LoadResized(path string, w, h int) (*image.NRGBA, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return ResizeTo(img, w, h), nil
}
