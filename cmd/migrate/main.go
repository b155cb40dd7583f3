package main

// Apply the Postgres schema for the users and media_assets tables:
//   DATABASE_URL=postgres://... go run ./cmd/migrate
//
// Not needed for the MongoDB backend; run ./cmd/seed there to create indexes.

import (
	"context"
	"os"
	"strings"

	"media-backend/internal/shared/config"
	"media-backend/internal/shared/storage/db"
	"media-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	_ = telemetry.Init(cfg.Env, cfg.LogLevel)
	defer telemetry.Sync()

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Error("migrate.config", map[string]any{"error": "DATABASE_URL is required"})
		os.Exit(1)
	}

	ctx := context.Background()
	pool := db.NewPool(cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	sqlDB, err := pool.DB(ctx)
	if err != nil {
		telemetry.Error("migrate.connect", map[string]any{"error": err})
		os.Exit(1)
	}
	err = db.RunMigrations(ctx, sqlDB)
	_ = pool.Close()
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
