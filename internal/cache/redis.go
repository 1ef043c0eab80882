package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options describe how to reach Redis. URL wins over Addr/Password/DB.
type Options struct {
	Addr     string
	Password string
	DB       int
	URL      string
}

func (o Options) Enabled() bool { return o.Addr != "" || o.URL != "" }

// NewRedis connects and pings; the caller closes the client.
func NewRedis(ctx context.Context, o Options) (*redis.Client, error) {
	opts := &redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}
	if o.URL != "" {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
