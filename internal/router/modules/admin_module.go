package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
)

type AdminModule struct {
	Handler *handlers.AdminHandler
}

func NewAdminModule(h *handlers.AdminHandler) *AdminModule {
	return &AdminModule{Handler: h}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/admin")
	g.Use(middleware.RequireConfirmed(), middleware.RequireAdmin())
	{
		g.GET("/roles", m.Handler.Roles)
		g.PUT("/users/:id", m.Handler.EditProfile)
	}
}
