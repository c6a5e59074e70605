package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"ChartSentinel/internal/model"
)

func TestMemoryCacheLatest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour, time.Minute)

	if _, err := c.Latest(ctx, "BTCUSDT", model.Interval4h); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	row := model.IndicatorRow{Close: 42000, RSI: 55}
	if err := c.PutLatest(ctx, "BTCUSDT", model.Interval4h, row); err != nil {
		t.Fatal(err)
	}
	got, err := c.Latest(ctx, "BTCUSDT", model.Interval4h)
	if err != nil {
		t.Fatal(err)
	}
	if got.Close != 42000 || got.RSI != 55 {
		t.Errorf("got %+v", got)
	}
	if _, err := c.Latest(ctx, "BTCUSDT", model.Interval1d); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("other interval should miss, got %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := c.Latest(ctx, "BTCUSDT", model.Interval4h); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired row should miss, got %v", err)
	}
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute)

	ok, _ := c.Lock(ctx, "ETHUSDT", model.Interval15m)
	if !ok {
		t.Fatal("first lock should succeed")
	}
	ok, _ = c.Lock(ctx, "ETHUSDT", model.Interval15m)
	if ok {
		t.Fatal("second lock should fail while held")
	}
	ok, _ = c.Lock(ctx, "BTCUSDT", model.Interval15m)
	if !ok {
		t.Fatal("lock on another symbol should succeed")
	}

	c.Unlock(ctx, "ETHUSDT", model.Interval15m)
	ok, _ = c.Lock(ctx, "ETHUSDT", model.Interval15m)
	if !ok {
		t.Fatal("lock after unlock should succeed")
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	ok, _ = c.Lock(ctx, "ETHUSDT", model.Interval15m)
	if !ok {
		t.Fatal("expired lock should be reclaimable")
	}
}

func TestKeys(t *testing.T) {
	rc := newRedisCache(nil, RedisOptions{Prefix: "chartsentinel:"})
	if got := rc.wrapKey(latestKey("BTCUSDT", model.Interval1d)); got != "chartsentinel:latest:BTCUSDT:1d" {
		t.Errorf("latest key = %q", got)
	}
	if got := rc.wrapKey(lockKey("ETHUSDT", model.Interval15m)); got != "chartsentinel:lock:ETHUSDT:15m" {
		t.Errorf("lock key = %q", got)
	}
}

// TestRedisCache runs against a live server when REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(RedisOptions{Addr: addr, Prefix: "chartsentinel-test:", TTL: time.Minute, LockTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	row := model.IndicatorRow{Close: 1.5, RSI: model.NaN(), Cross25x50: model.CrossDown, Harmonic: 1}
	if err := c.PutLatest(ctx, "BTCUSDT", model.Interval4h, row); err != nil {
		t.Fatal(err)
	}
	got, err := c.Latest(ctx, "BTCUSDT", model.Interval4h)
	if err != nil {
		t.Fatal(err)
	}
	if got.Close != 1.5 || got.RSI.Valid() || got.Cross25x50 != model.CrossDown || got.Harmonic != 1 {
		t.Errorf("round trip = %+v", got)
	}

	c.Unlock(ctx, "BTCUSDT", model.Interval4h)
	ok, err := c.Lock(ctx, "BTCUSDT", model.Interval4h)
	if err != nil || !ok {
		t.Fatalf("lock: %v %v", ok, err)
	}
	ok, _ = c.Lock(ctx, "BTCUSDT", model.Interval4h)
	if ok {
		t.Error("second lock should fail")
	}
	c.Unlock(ctx, "BTCUSDT", model.Interval4h)
}
