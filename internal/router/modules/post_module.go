package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

// PostModule serves the blog: listing, reading, writing and commenting.
type PostModule struct {
	Handler *handlers.PostHandler
	Redis   *redis.Client
}

func NewPostModule(h *handlers.PostHandler, rdb *redis.Client) *PostModule {
	return &PostModule{Handler: h, Redis: rdb}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil)

	g := rg.Group("/posts")
	g.Use(middleware.RequireConfirmed())

	g.GET("", m.Handler.List)
	g.GET("/search", middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil), m.Handler.Search)
	g.GET("/:id", m.Handler.Get)

	g.POST("/show-all", middleware.RequireAuth(), m.Handler.ShowAll)
	g.POST("/show-followed", middleware.RequireAuth(), m.Handler.ShowFollowed)

	g.POST("", middleware.RequirePermission(entity.PermWriteArticles), writeLimiter, m.Handler.Create)
	g.PUT("/:id", middleware.RequireAuth(), writeLimiter, m.Handler.Edit)
	g.POST("/:id/comments", middleware.RequirePermission(entity.PermComment), writeLimiter, m.Handler.AddComment)
}
