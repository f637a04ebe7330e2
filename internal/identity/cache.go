package identity

import (
	"context"
	"sync"
)

// Cache memoizes directory records per identity for the process lifetime.
// It is unbounded and never evicts: the identity population is small and
// bounded by the organization's user count. A failed lookup is NOT cached,
// so a later call retries once the directory recovers.
//
// The cache is an explicit dependency injected into request handling, not a
// package global, so tests can scope one per server instance.
type Cache struct {
	resolver Resolver

	mu      sync.RWMutex
	records map[string]Record
}

// NewCache creates a cache backed by the given resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		records:  make(map[string]Record),
	}
}

// Resolve returns the directory record for an identity. A cache hit is
// authoritative for the process lifetime and performs no network call. A
// miss performs exactly one lookup, populating the cache only on success.
func (c *Cache) Resolve(ctx context.Context, name string) (Record, bool) {
	c.mu.RLock()
	rec, ok := c.records[name]
	c.mu.RUnlock()
	if ok {
		return rec, true
	}

	fetched, ok := c.resolver.RecordByName(ctx, name)
	if !ok {
		return Record{}, false
	}

	c.mu.Lock()
	// Another goroutine may have resolved the same identity meanwhile;
	// first write wins, both copies came from the same directory.
	if existing, ok := c.records[name]; ok {
		c.mu.Unlock()
		return existing, true
	}
	c.records[name] = *fetched
	c.mu.Unlock()
	return *fetched, true
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
