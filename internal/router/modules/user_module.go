package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

// UserModule serves profiles.
// Public: GET /api/users/search, GET /api/users/:username
// Signed in: GET /api/profile, PUT /api/profile, POST /api/profile/avatar
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	searchLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil)

	pub := rg.Group("/")
	pub.Use(middleware.RequireConfirmed())
	{
		pub.GET("/users/search", searchLimiter, m.Handler.Search)
		pub.GET("/users/:username", m.Handler.Profile)
	}

	auth := rg.Group("/profile")
	auth.Use(middleware.RequireAuth(), middleware.RequireConfirmed())
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("", m.Handler.Me)
		auth.PUT("", m.Handler.UpdateProfile)
		auth.POST("/avatar", middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadAvatar)
	}
}
