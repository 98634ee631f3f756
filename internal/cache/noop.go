package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetChunks always returns nil (cache miss)
func (c *NoOpCache) GetChunks(ctx context.Context, key string) (*ChunkResult, error) {
	return nil, nil
}

// SetChunks does nothing and always succeeds
func (c *NoOpCache) SetChunks(ctx context.Context, key string, result *ChunkResult, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
