package router

import (
	"github.com/ChaoPei/flasky/internal/container"
	handlers "github.com/ChaoPei/flasky/internal/interface/http"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/internal/router/modules"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Follow     *handlers.FollowHandler
	Post       *handlers.PostHandler
	Moderation *handlers.ModerationHandler
	Admin      *handlers.AdminHandler
}

func buildHandlers(app *container.App) Handlers {
	return Handlers{
		Auth:       handlers.NewAuthHandler(app.Auth, app.Logger, app.Cookies),
		User:       handlers.NewUserHandler(app.Users, app.Logger),
		Follow:     handlers.NewFollowHandler(app.Follows, app.Logger),
		Post:       handlers.NewPostHandler(app.Posts, app.Logger, app.Config.CookieSecure),
		Moderation: handlers.NewModerationHandler(app.Posts, app.Logger),
		Admin:      handlers.NewAdminHandler(app.Users, app.Logger),
	}
}

// InitModules resolves the current user on every API request and registers
// all feature modules. Call it once during startup, before RegisterAll.
func InitModules(r *Registry, app *container.App) {
	r.Use(middleware.CurrentUser(app.Redis, app.JWT, app.Users, app.Logger))

	h := buildHandlers(app)
	r.Add(modules.NewAuthModule(h.Auth, app.Redis))
	r.Add(modules.NewUserModule(h.User, app.Redis))
	r.Add(modules.NewFollowModule(h.Follow, app.Redis))
	r.Add(modules.NewPostModule(h.Post, app.Redis))
	r.Add(modules.NewModerationModule(h.Moderation))
	r.Add(modules.NewAdminModule(h.Admin))
	if app.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(app.Redis))
	}
}
