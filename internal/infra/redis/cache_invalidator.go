package redis

import (
	"context"

	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/metrics"
)

var _ adapter.CacheInvalidator = (*CacheInvalidator)(nil)

// CacheInvalidator evicts derived views (dashboards, enrollment lists, plan
// listings) by key pattern. SCAN is used instead of KEYS so eviction never
// blocks the server on large keyspaces.
type CacheInvalidator struct {
	client RedisClient
}

func NewCacheInvalidator(client RedisClient) *CacheInvalidator {
	return &CacheInvalidator{client: client}
}

func (c *CacheInvalidator) Invalidate(ctx context.Context, patterns ...string) error {
	for _, pattern := range patterns {
		if err := c.invalidatePattern(ctx, pattern); err != nil {
			metrics.IncCacheInvalidation("error")
			return err
		}
	}
	metrics.IncCacheInvalidation("ok")
	return nil
}

func (c *CacheInvalidator) invalidatePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
