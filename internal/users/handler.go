package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"media-backend/internal/shared/metrics"
	"media-backend/internal/shared/server/middleware"
	"media-backend/internal/shared/server/respond"
	"media-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches account routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", h.logout)

	rg.GET("/user/profile", requireAuth, h.profile)
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		metrics.IncAuth("signup", "invalid")
		respond.Error(c, http.StatusBadRequest, "validation_error", "username, email and password are required", err.Error())
		return
	}

	session, err := h.Svc.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			metrics.IncAuth("signup", "conflict")
			respond.Error(c, http.StatusConflict, "email_taken", "email already registered", nil)
			return
		}
		if errors.Is(err, ErrPasswordTooLong) {
			metrics.IncAuth("signup", "invalid")
			respond.Error(c, http.StatusBadRequest, "validation_error", ErrPasswordTooLong.Error(), nil)
			return
		}
		metrics.IncAuth("signup", "error")
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create account", err.Error())
		return
	}

	metrics.IncAuth("signup", "ok")
	telemetry.Info("auth.signup", map[string]any{"user_id": session.User.ID})
	respond.Created(c, SessionResponse{User: session.User.Public(), Token: session.Token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		metrics.IncAuth("login", "invalid")
		respond.Error(c, http.StatusBadRequest, "validation_error", "email and password are required", err.Error())
		return
	}

	session, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.IncAuth("login", "rejected")
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil)
			return
		}
		metrics.IncAuth("login", "error")
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", err.Error())
		return
	}

	metrics.IncAuth("login", "ok")
	respond.OK(c, SessionResponse{User: session.User.Public(), Token: session.Token})
}

// logout is stateless; clients drop the token.
func (h *Handler) logout(c *gin.Context) {
	respond.OK(c, gin.H{"message": "Logged out"})
}

func (h *Handler) profile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A valid token for a deleted account.
			telemetry.Warn("auth.profile.stale_token", map[string]any{
				"user_id": userID,
				"email":   middleware.UserEmailFromContext(c),
			})
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", err.Error())
		return
	}
	respond.OK(c, user.Public())
}
