package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

type ModerationModule struct {
	Handler *handlers.ModerationHandler
}

func NewModerationModule(h *handlers.ModerationHandler) *ModerationModule {
	return &ModerationModule{Handler: h}
}

func (m *ModerationModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/moderate")
	g.Use(middleware.RequireConfirmed(), middleware.RequirePermission(entity.PermModerateComments))
	{
		g.GET("/comments", m.Handler.Comments)
		g.POST("/comments/:id/enable", m.Handler.Enable)
		g.POST("/comments/:id/disable", m.Handler.Disable)
	}
}
