package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type snapshot struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t)

	if err := mc.Set(ctx, "decision:TCS", snapshot{Symbol: "TCS", Price: 3500.5}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got snapshot
	if err := mc.Get(ctx, "decision:TCS", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "TCS" || got.Price != 3500.5 {
		t.Fatalf("got %+v", got)
	}

	*now = now.Add(2 * time.Minute)
	if err := mc.Get(ctx, "decision:TCS", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t, WithMemoryMaxSize(2))

	_ = mc.Set(ctx, "a", 1, time.Hour)
	*now = now.Add(time.Second)
	_ = mc.Set(ctx, "b", 2, time.Hour)
	*now = now.Add(time.Second)

	var v int
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("get a: %v", err)
	}
	*now = now.Add(time.Second)
	_ = mc.Set(ctx, "c", 3, time.Hour)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatal("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a"); !ok {
		t.Fatal("a was recently used and must survive")
	}
	if mc.Len() != 2 {
		t.Fatalf("len = %d", mc.Len())
	}
}

func TestMemoryTryLock(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestMemory(t)

	if ok, _ := mc.TryLock(ctx, "lock:prewarm", time.Second); !ok {
		t.Fatal("first lock must succeed")
	}
	if ok, _ := mc.TryLock(ctx, "lock:prewarm", time.Second); ok {
		t.Fatal("second lock must fail")
	}
	*now = now.Add(2 * time.Second)
	if ok, _ := mc.TryLock(ctx, "lock:prewarm", time.Second); !ok {
		t.Fatal("lock must be free after ttl")
	}
	_ = mc.Unlock(ctx, "lock:prewarm")
	if ok, _ := mc.Exists(ctx, "lock:prewarm"); ok {
		t.Fatal("unlock did not release")
	}
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)
	calls := 0
	load := func(context.Context) (snapshot, error) {
		calls++
		return snapshot{Symbol: "INFY", Price: 1500}, nil
	}

	v, hit, err := Remember(ctx, mc, "k", time.Minute, load)
	if err != nil || hit || v.Symbol != "INFY" {
		t.Fatalf("first call: %+v hit=%v err=%v", v, hit, err)
	}
	v, hit, err = Remember(ctx, mc, "k", time.Minute, load)
	if err != nil || !hit || v.Price != 1500 {
		t.Fatalf("second call: %+v hit=%v err=%v", v, hit, err)
	}
	if calls != 1 {
		t.Fatalf("loader called %d times", calls)
	}

	boom := errors.New("boom")
	_, _, err = Remember(ctx, mc, "other", time.Minute, func(context.Context) (snapshot, error) {
		return snapshot{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want loader error, got %v", err)
	}
	if ok, _ := mc.Exists(ctx, "other"); ok {
		t.Fatal("failed load must not be cached")
	}
}

func TestKey(t *testing.T) {
	if got := Key("widget", "", "overview", "1y"); got != "widget:overview:1y" {
		t.Fatalf("Key = %q", got)
	}
}
