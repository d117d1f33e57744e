package refpath

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/larder/pkg/schema"
)

// DefaultCacheSize bounds the memo table when NewCache is given no limit.
const DefaultCacheSize = 1024

// Cache memoizes ReferencePath construction keyed by (starting types, path
// string). Resolution is re-run at most once per key at a time: concurrent
// callers for the same key share one in-flight construction. Entries are
// evicted FIFO beyond the size bound and transparently re-resolved on the
// next access. Failures are returned but never cached, so a later call
// against a now-valid registry re-attempts resolution.
type Cache struct {
	reg *schema.Registry
	max int

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*ReferencePath
	order   []string

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns a cache over the given registry. maxEntries <= 0 selects
// DefaultCacheSize.
func NewCache(reg *schema.Registry, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &Cache{
		reg:     reg,
		max:     maxEntries,
		entries: make(map[string]*ReferencePath),
	}
}

// Get returns the resolved path for (startTypes, path), constructing it at
// most once per key for concurrent callers.
func (c *Cache) Get(startTypes schema.TypeSet, path string) (*ReferencePath, error) {
	key := cacheKey(startTypes, path)

	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A flight that completed between the miss above and this call may
		// already have stored the entry.
		c.mu.Lock()
		if p, ok := c.entries[key]; ok {
			c.mu.Unlock()
			c.hits.Add(1)
			return p, nil
		}
		c.mu.Unlock()

		c.misses.Add(1)
		p, err := Resolve(c.reg, startTypes, path)
		if err != nil {
			return nil, err
		}
		c.store(key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReferencePath), nil
}

// Stats returns the hit and miss counts; misses count actual resolutions.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// store inserts a resolved path, evicting the oldest entries beyond the
// size bound.
func (c *Cache) store(key string, p *ReferencePath) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = p
	for len(c.entries) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// cacheKey derives the memo key from the sorted starting-type names and the
// path string. Each name is quoted so that names containing separator
// characters cannot collide with a different type-set's key.
func cacheKey(startTypes schema.TypeSet, path string) string {
	var b strings.Builder
	for _, name := range startTypes.Names() {
		b.WriteString(strconv.Quote(name))
		b.WriteByte(',')
	}
	b.WriteString(path)
	return b.String()
}
