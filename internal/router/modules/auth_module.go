package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/cosmebag/internal/interface/http"
	"github.com/oksasatya/cosmebag/internal/interface/middleware"
)

// AuthModule wires the session endpoints.
// Public: POST /api/auth/sign-in, /sign-up, /confirm, /refresh; GET /api/auth/session
// Protected: POST /api/auth/sign-out
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Sessions middleware.SessionLookup
	Redis    *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, sessions middleware.SessionLookup, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	signInLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	signUpLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	confirmLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/sign-in", signInLimiter, m.Handler.SignIn)
	rg.POST("/auth/sign-up", signUpLimiter, m.Handler.SignUp)
	rg.POST("/auth/confirm", confirmLimiter, m.Handler.ConfirmEmail)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/auth/session", middleware.OptionalAuth(m.Sessions), m.Handler.Session)

	auth := protected(rg, m.Sessions, m.Redis)
	{
		auth.POST("/auth/sign-out", m.Handler.SignOut)
	}
}
