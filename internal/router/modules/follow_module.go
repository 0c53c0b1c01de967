package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

type FollowModule struct {
	Handler *handlers.FollowHandler
	Redis   *redis.Client
}

func NewFollowModule(h *handlers.FollowHandler, rdb *redis.Client) *FollowModule {
	return &FollowModule{Handler: h, Redis: rdb}
}

func (m *FollowModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users/:username")
	g.Use(middleware.RequireConfirmed())
	g.GET("/followers", m.Handler.Followers)
	g.GET("/following", m.Handler.Following)

	perm := g.Group("/")
	perm.Use(
		middleware.RequirePermission(entity.PermFollow),
		middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		perm.POST("/follow", m.Handler.Follow)
		perm.DELETE("/follow", m.Handler.Unfollow)
	}
}
