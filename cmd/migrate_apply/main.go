package main

import (
	"flag"
	"os"

	"task_tracker/internal/logger"
	"task_tracker/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	apply := flag.Bool("apply", false, "apply pending migrations (default: print status)")
	flag.Parse()

	if !*apply {
		if err := migrations.Status(dsn); err != nil {
			logger.Fatal("migration status", "error", err)
		}
		return
	}
	if err := migrations.Up(dsn); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}
	logger.Info("migrations applied")
}
