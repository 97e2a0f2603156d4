package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for the key/value store carrying
// navigation handoffs between screens.
// Implementations are the adapters (RedisCacheAdapter, MemoryCache).
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one exists.
	// If expiration is 0, the item is kept until deleted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// GetDel atomically reads and removes an item.
	// It returns ErrCacheMiss if the key is not found.
	GetDel(ctx context.Context, key string) (string, error)

	// Delete removes an item from the cache.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}
