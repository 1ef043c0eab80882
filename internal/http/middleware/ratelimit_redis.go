package middleware

import (
	"net/http"
	"strconv"
	"time"

	"task_tracker/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter over Redis INCR/EXPIRE.
// A nil client or a Redis error lets the request through (fail-open).
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Limit allows maxRequests per window for one caller.
// Callers are keyed by user id when JWT already ran, by client IP otherwise.
// key format: rl:<name>:<window_seconds>:<identifier>
func (l *RateLimiter) Limit(name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.rdb == nil || maxRequests <= 0 {
			c.Next()
			return
		}

		ident := "ip:" + c.ClientIP()
		if uid, ok := c.Get(UserIDKey); ok {
			if id, ok := uid.(int64); ok {
				ident = "u:" + strconv.FormatInt(id, 10)
			}
		}
		key := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := c.Request.Context()

		val, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			// first increment, set expiry
			l.rdb.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(name).Inc()
		c.Next()
	}
}
