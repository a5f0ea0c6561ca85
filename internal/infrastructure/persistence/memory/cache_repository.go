package memory

import (
	"context"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	gocache "github.com/patrickmn/go-cache"
)

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// CacheRepository implements an in-process cache with expiry
type CacheRepository struct {
	items *gocache.Cache
}

// NewCacheRepository creates a cache whose entries default to defaultTTL
// and are swept every cleanupInterval
func NewCacheRepository(defaultTTL, cleanupInterval time.Duration) *CacheRepository {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &CacheRepository{items: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := r.items.Get(key)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return v.([]byte), nil
}

// Set stores a value in cache. A zero ttl uses the default expiry.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	r.items.Set(key, value, ttl)
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.items.Delete(key)
	return nil
}

// Exists checks if a key exists and has not expired
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := r.items.Get(key)
	return ok, nil
}

// Flush drops every entry
func (r *CacheRepository) Flush() {
	r.items.Flush()
}
