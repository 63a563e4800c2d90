package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

// MemoryCache is an in-process verdict cache with per-entry TTL and LRU
// eviction at capacity. Expired entries are evicted lazily on Get.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	now func() time.Time // injectable for tests
}

type entry struct {
	key       string
	value     model.ConsensusResult
	createdAt time.Time
}

// NewMemoryCache creates a memory cache from configuration.
func NewMemoryCache(cfg model.CacheConfig) *MemoryCache {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1
	}

	return &MemoryCache{
		ttl:     time.Duration(cfg.TTLSeconds) * time.Second,
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns the cached result if present and fresh. A stale entry is a
// miss and is evicted on the spot.
func (c *MemoryCache) Get(key string) (*model.ConsensusResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	ent := el.Value.(*entry)
	if !c.now().Before(ent.createdAt.Add(c.ttl)) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}

	c.order.MoveToFront(el)
	value := ent.value
	return &value, true
}

// Set stores a result, evicting the least-recently-used entry when full.
func (c *MemoryCache) Set(key string, value *model.ConsensusResult) error {
	if value == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*entry)
		ent.value = *value
		ent.createdAt = c.now()
		c.order.MoveToFront(el)
		return nil
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{
		key:       key,
		value:     *value,
		createdAt: c.now(),
	})
	return nil
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
