package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, IdentityCacheConfig.Prefix), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	in := cachedRecord{ID: "u1", Email: "t@school.test"}
	if err := helper.Set(ctx, "u1", in, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var out cachedRecord
	if err := helper.Get(ctx, "u1", &out); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestHelper(t)

	var out cachedRecord
	if err := helper.Get(context.Background(), "missing", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "u1", cachedRecord{ID: "u1"}, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := helper.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	var out cachedRecord
	if err := helper.Get(ctx, "u1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("expected ErrCacheNotFound after delete, got %v", err)
	}
}

func TestCacheHelper_Expiry(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "u1", cachedRecord{ID: "u1"}, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var out cachedRecord
	if err := helper.Get(ctx, "u1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("expected ErrCacheNotFound after expiry, got %v", err)
	}
}

// A nil client degrades gracefully: sets and deletes are no-ops, gets report
// the cache as unavailable.
func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, IdentityCacheConfig.Prefix)
	ctx := context.Background()

	if err := helper.Set(ctx, "u1", cachedRecord{ID: "u1"}, time.Minute); err != nil {
		t.Fatalf("Set() with nil client should no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete() with nil client should no-op, got %v", err)
	}

	var out cachedRecord
	if err := helper.Get(ctx, "u1", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Fatalf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_GetCacheKey(t *testing.T) {
	helper := NewCacheHelper(nil, "identity:")
	if got := helper.GetCacheKey("u1"); got != "identity:u1" {
		t.Fatalf("GetCacheKey() = %q, want %q", got, "identity:u1")
	}
}
