package integration

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"task_tracker/internal/db"
	"task_tracker/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// connect applies migrations and returns a pool; skips without DATABASE_URL.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// unique suffix so reruns against the same database do not collide
func unique(prefix string) string {
	return prefix + strconv.FormatInt(time.Now().UnixNano(), 36)
}
