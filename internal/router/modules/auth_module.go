package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

// AuthModule serves account registration, sessions and the emailed token
// workflows under /api/auth. It is left open to unconfirmed users so they
// can confirm.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil)
	resetInitLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	g := rg.Group("/auth")
	g.POST("/register", registerLimiter, m.Handler.Register)
	g.POST("/login", loginLimiter, m.Handler.Login)
	g.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	g.POST("/logout", m.Handler.Logout)
	g.GET("/me", m.Handler.Me)
	g.POST("/reset/init", resetInitLimiter, m.Handler.ResetInit)
	g.POST("/reset/confirm", resetConfirmLimiter, m.Handler.ResetConfirm)

	auth := g.Group("/")
	auth.Use(middleware.RequireAuth())
	auth.Use(middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/confirm", m.Handler.Confirm)
		auth.POST("/confirm/resend", middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.ResendConfirmation)
		auth.POST("/password", m.Handler.ChangePassword)
		auth.POST("/email/init", m.Handler.ChangeEmailInit)
		auth.POST("/email/confirm", m.Handler.ChangeEmailConfirm)
	}
}
