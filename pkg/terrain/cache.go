package terrain

import (
	"container/list"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"glidecone/internal/metrics"
)

// defaultCacheSize bounds the process-global tile LRU to a small working
// set of recently touched tiles.
const defaultCacheSize = 10

// tileCacheEntry is the value stored in the LRU's list elements.
type tileCacheEntry struct {
	key tileKey
	t   *tile
}

// TileCache is a bounded, thread-safe, memoized loader of DEM tiles keyed by
// integer (lat,lon). Entries are immutable once inserted, so concurrent
// readers only need to serialize the get-or-load critical section; a
// singleflight.Group collapses duplicate concurrent loads of the same tile
// into a single disk read.
type TileCache struct {
	dir     string
	maxSize int

	mu    sync.Mutex
	index map[tileKey]*list.Element
	order *list.List // front = most recently used

	loads singleflight.Group
}

// NewTileCache creates a cache rooted at dir with the default bound.
func NewTileCache(dir string) *TileCache {
	return NewTileCacheSize(dir, defaultCacheSize)
}

// NewTileCacheSize creates a cache with an explicit entry bound.
func NewTileCacheSize(dir string, maxSize int) *TileCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &TileCache{
		dir:     dir,
		maxSize: maxSize,
		index:   make(map[tileKey]*list.Element),
		order:   list.New(),
	}
}

// Get returns the tile covering (lat,lon)'s south-west degree corner,
// loading and caching it on first access. Missing or malformed tiles are a
// hard error.
func (c *TileCache) Get(lat, lon float64) (*tile, error) {
	return c.getByKey(tileKeyFor(lat, lon))
}

func (c *TileCache) getByKey(key tileKey) (*tile, error) {
	if t, ok := c.lookup(key); ok {
		metrics.Get().TileCacheHits.Inc()
		return t, nil
	}

	metrics.Get().TileCacheMisses.Inc()
	groupKey := fmt.Sprintf("%d,%d", key.lat, key.lon)
	v, err, _ := c.loads.Do(groupKey, func() (interface{}, error) {
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t, err := loadTile(c.dir, key)
		if err != nil {
			return nil, err
		}
		c.insert(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tile), nil
}

func (c *TileCache) lookup(key tileKey) (*tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*tileCacheEntry).t, true
}

func (c *TileCache) insert(key tileKey, t *tile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&tileCacheEntry{key: key, t: t})
	c.index[key] = elem

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		entry := oldest.Value.(*tileCacheEntry)
		delete(c.index, entry.key)
		c.order.Remove(oldest)
		metrics.Get().TileCacheEvicted.Inc()
	}
}

// Len reports the number of tiles currently cached.
func (c *TileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
