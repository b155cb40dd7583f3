package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"media-backend/internal/media"
	"media-backend/internal/services/health"
	"media-backend/internal/shared/config"
	"media-backend/internal/shared/metrics"
	"media-backend/internal/shared/server/middleware"
	"media-backend/internal/shared/server/respond"
	"media-backend/internal/users"
)

const (
	rateGroupUpload = "UPLOAD"
	rateGroupLogin  = "LOGIN"
)

// RouterDeps carries the handlers and collaborators mounted by NewRouter.
type RouterDeps struct {
	Config       config.Config
	MediaHandler *media.Handler
	UsersHandler *users.Handler
	Verifier     middleware.TokenVerifier
	Health       *health.Service
	Limiter      middleware.Limiter
	// LocalFilesDir is served under /files when the local object store is active.
	LocalFilesDir string
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:  deps.Limiter,
			GroupFor: rateGroupFor,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupUpload: middleware.PerMinute(deps.Config.UploadRatePerMin),
				rateGroupLogin:  middleware.PerMinute(deps.Config.LoginRatePerMin),
			},
		}),
	)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	})
	r.NoMethod(func(c *gin.Context) {
		respond.Error(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/health/ready", func(c *gin.Context) {
		report := healthSvc.Ready(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())

	if dir := strings.TrimSpace(deps.LocalFilesDir); dir != "" {
		r.Static("/files", dir)
	}

	requireAuth := middleware.RequireAuth(deps.Verifier)
	root := r.Group("")
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(root, requireAuth)
	}
	if deps.MediaHandler != nil {
		deps.MediaHandler.RegisterRoutes(root, requireAuth)
	}

	return r
}

// rateGroupFor limits uploads and credential checks. Other routes have no rule.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/media":
		return rateGroupUpload
	case "/auth/login", "/auth/signup":
		return rateGroupLogin
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
