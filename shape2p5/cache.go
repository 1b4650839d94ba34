package shape2p5

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes computed 2.5D collision shapes per visual-asset identifier.
// It is shared by every vehicle and obstacle referencing the same asset,
// lives for the whole process, and never evicts. Construct one explicitly
// and hand it to whoever assembles bodies; there is no hidden global.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Shape2p5
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Shape2p5)}
}

// Get resolves the 2.5D collision shape for a visual object sliced over
// [zMin, zMax]. When assetKey is non-empty the result is memoized: the first
// call traverses the geometry, later calls return the stored shape without
// touching the buffers, and concurrent first calls for the same key compute
// it once. An empty assetKey computes a transient shape, never cached.
func (c *Cache) Get(v Visual, zMin, zMax float64, pose Placement, scale float64, assetKey string) (Shape2p5, error) {
	if assetKey == "" {
		return c.compute(v, zMin, zMax, pose, scale, assetKey)
	}

	c.mu.RLock()
	s, ok := c.entries[assetKey]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	res, err, _ := c.group.Do(assetKey, func() (any, error) {
		// A racing caller may have landed the entry while we queued.
		c.mu.RLock()
		s, ok := c.entries[assetKey]
		c.mu.RUnlock()
		if ok {
			return s, nil
		}

		s, err := c.compute(v, zMin, zMax, pose, scale, assetKey)
		if err != nil {
			return Shape2p5{}, err
		}

		c.mu.Lock()
		c.entries[assetKey] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return Shape2p5{}, err
	}
	return res.(Shape2p5), nil
}

// Len reports the number of memoized assets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) compute(v Visual, zMin, zMax float64, pose Placement, scale float64, assetKey string) (Shape2p5, error) {
	pts, _ := ExtractPoints(v, zMin, zMax, pose, scale)
	return FromPoints(pts, zMin, zMax, assetKey)
}
