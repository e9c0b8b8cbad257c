package rates

import (
	"container/list"
	"sync"
	"time"
)

// tableCache is a size-bounded LRU of rate tables keyed by base. Entries
// older than the TTL are no longer fresh but stay readable through Stale
// until evicted, so a failed fetch can still answer with old rates.
type tableCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type cacheEntry struct {
	key      string
	table    Table
	storedAt time.Time
}

func newTableCache(maxSize int, ttl time.Duration) *tableCache {
	return &tableCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get returns the entry only while it is younger than the TTL.
func (c *tableCache) Get(key string) (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return Table{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		return Table{}, false
	}
	c.lru.MoveToFront(elem)
	return entry.table, true
}

// Stale returns the entry whatever its age.
func (c *tableCache) Stale(key string) (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return Table{}, false
	}
	return elem.Value.(*cacheEntry).table, true
}

func (c *tableCache) Set(key string, t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{key: key, table: t, storedAt: c.now()}
	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(entry)

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.lru.Remove(oldest)
		}
	}
}

func (c *tableCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
