package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

type report struct {
	Completion int `json:"completion"`
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestAnalyticsCacheIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	ctx := context.Background()
	rdb, err := NewRedis(ctx, Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	if err != nil {
		t.Fatal(err)
	}
	defer rdb.Close()

	c := NewAnalyticsCache(rdb, time.Minute)
	const user = int64(987654321)
	keyA := "analytics:987654321:daily:7:2024-06-15"
	keyB := "analytics:987654321:statistics:0:2024-06-15"
	other := "analytics:9876543210:daily:7:2024-06-15"

	var got report
	if ok, err := c.Get(ctx, keyA, &got); err != nil || ok {
		t.Fatalf("fresh key: ok=%v err=%v", ok, err)
	}
	for _, k := range []string{keyA, keyB, other} {
		if err := c.Set(ctx, k, report{Completion: 42}); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := c.Get(ctx, keyA, &got); err != nil || !ok || got.Completion != 42 {
		t.Fatalf("after set: ok=%v err=%v got=%+v", ok, err, got)
	}

	if err := c.InvalidateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{keyA, keyB} {
		if ok, _ := c.Get(ctx, k, &got); ok {
			t.Fatalf("%s survived invalidation", k)
		}
	}
	if ok, _ := c.Get(ctx, other, &got); !ok {
		t.Fatal("invalidation removed another user's key")
	}
	_ = rdb.Del(ctx, other).Err()
}

func TestUserPattern(t *testing.T) {
	if got := UserPattern(12); got != "analytics:12:*" {
		t.Fatalf("UserPattern = %q", got)
	}
}

func TestOptionsEnabled(t *testing.T) {
	if (Options{}).Enabled() {
		t.Fatal("empty options enabled")
	}
	if !(Options{URL: "redis://localhost:6379/0"}).Enabled() {
		t.Fatal("url options disabled")
	}
}
