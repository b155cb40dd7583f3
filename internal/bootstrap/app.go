package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"media-backend/internal/media"
	"media-backend/internal/queue"
	"media-backend/internal/services/health"
	"media-backend/internal/shared/auth"
	"media-backend/internal/shared/config"
	"media-backend/internal/shared/server"
	"media-backend/internal/shared/server/middleware"
	"media-backend/internal/shared/storage/db"
	"media-backend/internal/shared/storage/mongostore"
	"media-backend/internal/shared/storage/object"
	cloudinarystore "media-backend/internal/shared/storage/object/cloudinary"
	localstore "media-backend/internal/shared/storage/object/local"
	s3store "media-backend/internal/shared/storage/object/s3"
	"media-backend/internal/shared/telemetry"
	"media-backend/internal/users"
)

const redisKeyPrefix = "media-backend:ratelimit"

// App holds shared dependencies and the assembled router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Mongo    *mongostore.Handle
	Redis    *redis.Client
	Provider object.Provider
	Events   queue.Client
	Tokens   *auth.Manager
	Health   *health.Service

	MediaRepo    media.Repo
	UsersRepo    users.Repo
	MediaService *media.Service
	UsersService *users.Service
	MediaHandler *media.Handler
	UsersHandler *users.Handler
}

// Build prepares every dependency and wires the router. Connections to the
// document store are opened lazily on first use.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Tokens: tokens, Health: health.NewService()}

	if err := buildRepos(ctx, app); err != nil {
		return nil, err
	}

	provider, localDir, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Provider = provider

	limiter := buildLimiter(app)

	events, err := buildEvents(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Events = events

	resolver := media.Resolver{Folder: cfg.MediaFolder, DefaultPreset: cfg.UploadPreset, MaxBytes: cfg.MaxUploadBytes}
	app.MediaService = media.NewService(app.MediaRepo, provider, resolver, events)
	app.UsersService = users.NewService(app.UsersRepo, tokens)
	app.MediaHandler = media.NewHandler(app.MediaService, cfg.MaxUploadBytes, cfg.ExposeProviderErrors)
	app.UsersHandler = users.NewHandler(app.UsersService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		MediaHandler:  app.MediaHandler,
		UsersHandler:  app.UsersHandler,
		Verifier:      tokens,
		Health:        app.Health,
		Limiter:       limiter,
		LocalFilesDir: localDir,
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// buildRepos picks Mongo when MONGODB_URI is set, then Postgres, then memory in dev.
func buildRepos(ctx context.Context, app *App) error {
	cfg := app.Config

	if strings.TrimSpace(cfg.MongoURI) != "" {
		handle := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		app.Mongo = handle
		app.MediaRepo = &media.MongoRepo{Store: handle}
		app.UsersRepo = &users.MongoRepo{Store: handle}
		app.Health.Register("mongo", handle.Ping)
		telemetry.Info("bootstrap.store", map[string]any{"backend": "mongo", "database": cfg.MongoDB})
		return nil
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.MediaRepo = &media.PGRepo{DB: sqlDB}
		app.UsersRepo = &users.PGRepo{DB: sqlDB}
		app.Health.Register("postgres", sqlDB.PingContext)
		telemetry.Info("bootstrap.store", map[string]any{"backend": "postgres"})
		return nil
	}

	app.MediaRepo = media.NewMemoryRepo()
	app.UsersRepo = users.NewMemoryRepo()
	telemetry.Warn("bootstrap.store", map[string]any{"backend": "memory"})
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			return nil, nil
		}
		return nil, fmt.Errorf("MONGODB_URI or DATABASE_URL is required")
	}

	opts := db.DefaultServerOptions()
	if db.IsLambdaRuntime() {
		opts = db.DefaultLambdaOptions()
	}
	pool := db.NewPool(cfg.DatabaseURL, db.OptionsFromEnv(opts))
	sqlDB, err := pool.DB(ctx)
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			_ = pool.Close()
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.unavailable", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// buildProvider returns the object store and, for the local store, the
// directory to serve under /files.
func buildProvider(ctx context.Context, cfg config.Config) (object.Provider, string, error) {
	switch cfg.ObjectStoreType {
	case "cloudinary":
		if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
			p, err := cloudinarystore.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
			return p, "", err
		}
		if !cfg.IsDevLike() {
			return nil, "", fmt.Errorf("OBJECT_STORE=cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
		telemetry.Warn("bootstrap.provider.fallback", map[string]any{"requested": "cloudinary", "using": "local"})
	case "s3":
		p, err := s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			KMSKeyID:      cfg.SSEKMSKeyID,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		return p, "", err
	}
	store := localstore.New(cfg.LocalStoreDir, cfg.LocalPublicBaseURL)
	return store, store.Dir(), nil
}

func buildLimiter(app *App) middleware.Limiter {
	cfg := app.Config
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return middleware.NewRateLimiter(nil)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	app.Redis = client
	app.Health.Register("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return middleware.NewRedisLimiter(client, redisKeyPrefix)
}

func buildEvents(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.MediaEventsQueueURL) == "" {
		return queue.Discard{}, nil
	}
	return queue.NewSQSClient(ctx, cfg.MediaEventsQueueURL, cfg.AWSRegion)
}
