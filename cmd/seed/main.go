package main

// Create or reset a tester account and print a bearer token:
//   go run ./cmd/seed -email tester01@example.com -password 'Secret123!'

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"media-backend/internal/bootstrap"
	"media-backend/internal/shared/config"
	"media-backend/internal/shared/telemetry"
	"media-backend/internal/users"
)

func main() {
	username := flag.String("username", "tester01", "account username")
	email := flag.String("email", "tester01@example.com", "account email")
	password := flag.String("password", "Secret123!", "account password")
	flag.Parse()

	cfg := config.Load()
	_ = telemetry.Init(cfg.Env, cfg.LogLevel)
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("seed.bootstrap", map[string]any{"error": err})
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer app.Close(ctx)

	if repo, ok := app.UsersRepo.(*users.MongoRepo); ok {
		if err := repo.EnsureIndexes(ctx); err != nil {
			telemetry.Warn("seed.indexes", map[string]any{"error": err})
		}
	}

	session, err := app.UsersService.EnsureAccount(ctx, *username, *email, *password)
	if err != nil {
		telemetry.Error("seed.failed", map[string]any{"error": err})
		os.Exit(1)
	}

	telemetry.Info("seed.done", map[string]any{"user_id": session.User.ID, "email": session.User.Email})
	fmt.Println(session.Token)
}
