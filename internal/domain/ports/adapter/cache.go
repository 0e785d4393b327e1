package adapter

import "context"

// CacheInvalidator evicts derived views (dashboards, listings) by key
// pattern. Invalidation is best-effort: stale entries self-heal on TTL
// expiry, so callers log and swallow failures.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, patterns ...string) error
}
