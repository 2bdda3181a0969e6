package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSafeDelete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "email:taken@school.test", true, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	SafeDelete(ctx, helper, "email:taken@school.test")

	var out bool
	if err := helper.Get(ctx, "email:taken@school.test", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("expected key gone after SafeDelete, got %v", err)
	}
}

func TestSafeDelete_NilHelper(t *testing.T) {
	// Must not panic; invalidation is best-effort.
	SafeDelete(context.Background(), nil, "email:x@school.test")
}
