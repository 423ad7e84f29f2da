package balance

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newHybrid(t *testing.T) (*LocalTier, Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewMemoryStore()
	local := NewLocalTier(NewRedisTier(client, store, time.Minute), time.Minute)
	return local, store, mr
}

func TestHybridColdLoadWarmsEveryTier(t *testing.T) {
	local, store, mr := newHybrid(t)
	account := uuid.New()
	SeedBalance(store, account, "gold", dec("100.00"))
	SeedBalance(store, account, "gems", dec("7.50"))
	ctx := context.Background()

	bal, err := local.Get(ctx, account, "gold")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bal.Equal(dec("100.00")) {
		t.Fatalf("expected 100.00, got %s", bal)
	}

	// One whole-account load warms both the local map and the distributed
	// per-currency keys.
	if loads := FullLoads(store); loads != 1 {
		t.Fatalf("expected 1 store load, got %d", loads)
	}
	for _, currencyID := range []string{"gold", "gems"} {
		if _, err := mr.Get(redisKey(account, currencyID)); err != nil {
			t.Fatalf("expected distributed key for %s: %v", currencyID, err)
		}
	}

	// The other currency is now a local hit.
	bal, err = local.Get(ctx, account, "gems")
	if err != nil {
		t.Fatalf("get gems: %v", err)
	}
	if !bal.Equal(dec("7.50")) {
		t.Fatalf("expected 7.50, got %s", bal)
	}
	if loads := FullLoads(store); loads != 1 {
		t.Fatalf("warm currency must not reload, got %d loads", loads)
	}
}

func TestHybridReadAfterWriteThroughEachTier(t *testing.T) {
	local, store, mr := newHybrid(t)
	account := uuid.New()
	ctx := context.Background()

	if err := local.Set(ctx, account, "gold", dec("42.00")); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Local hit.
	bal, err := local.Get(ctx, account, "gold")
	if err != nil || !bal.Equal(dec("42.00")) {
		t.Fatalf("local read: %s %v", bal, err)
	}

	// Cold load after dropping the local entry re-warms the chain.
	local.Invalidate(account)
	bal, err = local.Get(ctx, account, "gold")
	if err != nil || !bal.Equal(dec("42.00")) {
		t.Fatalf("reload after invalidate: %s %v", bal, err)
	}

	// Same again with both cache tiers dropped.
	local.Invalidate(account)
	mr.FlushAll()
	bal, err = local.Get(ctx, account, "gold")
	if err != nil || !bal.Equal(dec("42.00")) {
		t.Fatalf("store read: %s %v", bal, err)
	}

	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("42.00")) {
		t.Fatalf("expected stored 42.00, got %s", stored)
	}
}

func TestHybridUpdatePropagatesDownFirst(t *testing.T) {
	local, store, mr := newHybrid(t)
	account := uuid.New()
	SeedBalance(store, account, "gold", dec("10.00"))
	ctx := context.Background()

	if _, err := local.Get(ctx, account, "gold"); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if err := local.Update(ctx, account, "gold", dec("2.25")); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, _ := store.GetBalance(ctx, account, "gold")
	if !stored.Equal(dec("12.25")) {
		t.Fatalf("expected store 12.25, got %s", stored)
	}
	raw, _ := mr.Get(redisKey(account, "gold"))
	if raw != "12.25" {
		t.Fatalf("expected distributed 12.25, got %q", raw)
	}
	localBal, ok := local.GetIfCached(account, "gold")
	if !ok || !localBal.Equal(dec("12.25")) {
		t.Fatalf("expected local 12.25, got %s ok=%v", localBal, ok)
	}
}
