// Package cache keeps computed analytics reports in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"task_tracker/internal/logger"
)

const keyPrefix = "analytics:"

// AnalyticsCache stores JSON encoded reports under analytics:<user>:... keys.
// Redis failures are logged and reported as misses.
type AnalyticsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnalyticsCache(rdb *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{rdb: rdb, ttl: ttl}
}

// Get decodes the cached value into dst. A miss is (false, nil).
func (c *AnalyticsCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Warn("analytics cache get failed", "key", key, "error", err)
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *AnalyticsCache) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		logger.Warn("analytics cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}

// InvalidateUser removes every cached report of the user (cache invalidation on write).
func (c *AnalyticsCache) InvalidateUser(ctx context.Context, userID int64) error {
	iter := c.rdb.Scan(ctx, 0, UserPattern(userID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("analytics cache scan failed", "user_id", userID, "error", err)
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("analytics cache invalidate failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// UserPattern matches all keys of one user.
func UserPattern(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":*"
}
