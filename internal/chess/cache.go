package chess

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TTL is how long a cached rating stays fresh.
const TTL = time.Hour

// Entry is one cached lookup result. Presence does not imply freshness;
// callers must check Fresh on every read.
type Entry struct {
	Data      *Rating
	Timestamp time.Time
}

type cacheKey struct {
	username string
	provider string
}

// Cache is a TTL-keyed cache of rating lookups, keyed by (username, provider).
// Stale entries are never evicted proactively, only superseded by the next
// successful fetch.
type Cache struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[cacheKey]Entry
}

func NewCache(clock clockwork.Clock) *Cache {
	return &Cache{
		clock:   clock,
		entries: make(map[cacheKey]Entry),
	}
}

// Get returns the entry for (username, provider), fresh or not.
func (c *Cache) Get(username, provider string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey{username: username, provider: provider}]
	return entry, ok
}

// Put stores a successful lookup with the current timestamp.
func (c *Cache) Put(username, provider string, data *Rating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{username: username, provider: provider}] = Entry{
		Data:      data,
		Timestamp: c.clock.Now(),
	}
}

// Fresh reports whether an entry is still within the TTL.
func (c *Cache) Fresh(entry Entry) bool {
	return c.clock.Since(entry.Timestamp) < TTL
}
