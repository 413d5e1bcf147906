package cache

import (
	"sync"
	"time"
)

type entry struct {
	value  interface{}
	expiry time.Time
}

// Cache is a TTL key/value cache for reference data that rarely
// changes, such as machine records. Expired entries are evicted lazily
// by the read that discovers them; there is no background sweep, and no
// eviction policy beyond TTL. Writes are last-write-wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false when the key was
// never set or its TTL has passed.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiry) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have
		// refreshed the entry in between.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:  value,
		expiry: time.Now().Add(ttl),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
