package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultMaxUploadBytes = 50 << 20 // 50MB
	defaultTokenTTL       = 7 * 24 * time.Hour
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	JWTSecret   string
	JWTTokenTTL time.Duration

	MongoURI    string
	MongoDB     string
	DatabaseURL string

	ObjectStoreType     string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	UploadPreset        string
	MediaFolder         string
	MaxUploadBytes      int64
	LocalStoreDir       string
	LocalPublicBaseURL  string
	AWSRegion           string
	S3Bucket            string
	S3Prefix            string
	S3PublicBaseURL     string
	SSEKMSKeyID         string

	RedisAddr     string
	RedisPassword string

	MediaEventsQueueURL  string
	ExposeProviderErrors bool
	UploadRatePerMin     int
	LoginRatePerMin      int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	preset := strings.TrimSpace(v.GetString("CLOUDINARY_UPLOAD_PRESET"))
	if preset == "" {
		preset = strings.TrimSpace(v.GetString("NEXT_PUBLIC_CLOUDINARY_UPLOAD_PRESET"))
	}

	ttl := v.GetDuration("JWT_EXPIRES_IN")
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	maxUpload := v.GetInt64("MEDIA_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	return Config{
		Port:                 v.GetString("PORT"),
		Env:                  normalizeEnv(v.GetString("ENV")),
		LogLevel:             strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		CORSAllowOrigin:      splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		JWTSecret:            strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTokenTTL:          ttl,
		MongoURI:             strings.TrimSpace(v.GetString("MONGODB_URI")),
		MongoDB:              v.GetString("MONGODB_DB"),
		DatabaseURL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
		ObjectStoreType:      normalizeStoreType(v.GetString("OBJECT_STORE")),
		CloudinaryCloudName:  strings.TrimSpace(v.GetString("CLOUDINARY_CLOUD_NAME")),
		CloudinaryAPIKey:     strings.TrimSpace(v.GetString("CLOUDINARY_API_KEY")),
		CloudinaryAPISecret:  strings.TrimSpace(v.GetString("CLOUDINARY_API_SECRET")),
		UploadPreset:         preset,
		MediaFolder:          v.GetString("MEDIA_FOLDER"),
		MaxUploadBytes:       maxUpload,
		LocalStoreDir:        v.GetString("LOCAL_STORE_DIR"),
		LocalPublicBaseURL:   v.GetString("LOCAL_PUBLIC_BASE_URL"),
		AWSRegion:            v.GetString("AWS_REGION"),
		S3Bucket:             v.GetString("S3_BUCKET"),
		S3Prefix:             v.GetString("S3_PREFIX"),
		S3PublicBaseURL:      v.GetString("S3_PUBLIC_BASE_URL"),
		SSEKMSKeyID:          v.GetString("SSE_KMS_KEY_ID"),
		RedisAddr:            strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		MediaEventsQueueURL:  strings.TrimSpace(v.GetString("MEDIA_EVENTS_QUEUE_URL")),
		ExposeProviderErrors: v.GetBool("EXPOSE_PROVIDER_ERRORS"),
		UploadRatePerMin:     v.GetInt("UPLOAD_RATE_PER_MIN"),
		LoginRatePerMin:      v.GetInt("LOGIN_RATE_PER_MIN"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,https://challz-frontend.vercel.app")
	v.SetDefault("JWT_EXPIRES_IN", defaultTokenTTL.String())
	v.SetDefault("MONGODB_DB", "media")
	v.SetDefault("OBJECT_STORE", "")
	v.SetDefault("MEDIA_FOLDER", "media")
	v.SetDefault("MEDIA_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("LOCAL_PUBLIC_BASE_URL", "http://localhost:8080/files")
	v.SetDefault("EXPOSE_PROVIDER_ERRORS", false)
	v.SetDefault("UPLOAD_RATE_PER_MIN", 30)
	v.SetDefault("LOGIN_RATE_PER_MIN", 10)
}

// IsProduction reports whether the config targets production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// Validate reports missing secrets that are fatal in production.
func (c Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.MongoURI == "" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("MONGODB_URI or DATABASE_URL is required in production"))
	}
	switch c.ObjectStoreType {
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required"))
		}
	case "s3":
		if strings.TrimSpace(c.S3Bucket) == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for OBJECT_STORE=s3"))
		}
	case "local":
		errs = append(errs, fmt.Errorf("OBJECT_STORE=%s is not allowed in production", c.ObjectStoreType))
	}
	return errors.Join(errs...)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// normalizeStoreType picks cloudinary when unset so existing deployments keep working.
func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local", "fs":
		return "local"
	case "cloudinary", "":
		return "cloudinary"
	default:
		return "local"
	}
}
