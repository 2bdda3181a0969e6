package cache

import (
	"context"
	"log/slog"
)

// SafeDelete deletes cache keys, logging instead of propagating failures.
// Cache invalidation must never fail a mutation that already committed.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if helper == nil {
		return
	}
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}
