package staff

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	domain "nextgen/internal/domain/staff"
)

// CachedStore wraps a Store with a bounded LRU cache keyed by lowercase
// email. Staff reference data changes rarely; the cache caps the per-webhook
// lookup cost for bookings with repeat volunteers. Misses are cached too, so
// an unregistered volunteer does not hit the database on every event.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	staff domain.Staff
	found bool
}

// NewCachedStore creates a caching decorator around a staff store.
// PRE: inner is non-nil, size > 0
// POST: Returns the decorator or the cache constructor's error
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

// GetActiveByEmail resolves from cache first, then the inner store.
// PRE: email is non-empty
// POST: Returns the record or ErrNotFound; transient store errors are
// never cached
func (c *CachedStore) GetActiveByEmail(ctx context.Context, email string) (domain.Staff, error) {
	key := strings.ToLower(email)
	if entry, ok := c.cache.Get(key); ok {
		if !entry.found {
			return domain.Staff{}, ErrNotFound
		}
		return entry.staff, nil
	}

	entity, err := c.inner.GetActiveByEmail(ctx, key)
	if err == ErrNotFound {
		c.cache.Add(key, cacheEntry{found: false})
		return domain.Staff{}, ErrNotFound
	}
	if err != nil {
		return domain.Staff{}, err
	}
	c.cache.Add(key, cacheEntry{staff: entity, found: true})
	return entity, nil
}

// Purge drops all cached entries. Called after the rest of the application
// mutates staff records.
func (c *CachedStore) Purge() {
	c.cache.Purge()
}
