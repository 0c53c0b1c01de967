package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/response"
)

type FollowHandler struct {
	Svc    *application.FollowService
	Logger *logrus.Logger
}

func NewFollowHandler(svc *application.FollowService, logger *logrus.Logger) *FollowHandler {
	return &FollowHandler{Svc: svc, Logger: logger}
}

// Follow POST /api/users/:username/follow
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	if err := h.Svc.Follow(c.Request.Context(), middleware.PrincipalFrom(c), username); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"following": true}, "you are now following "+username, nil)
}

// Unfollow DELETE /api/users/:username/follow
func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.Svc.Unfollow(c.Request.Context(), middleware.PrincipalFrom(c), username); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"following": false}, "you are not following "+username+" anymore", nil)
}

// Followers GET /api/users/:username/followers?page=
func (h *FollowHandler) Followers(c *gin.Context) {
	h.list(c, h.Svc.Followers, "followers")
}

// Following GET /api/users/:username/following?page=
func (h *FollowHandler) Following(c *gin.Context) {
	h.list(c, h.Svc.Following, "following")
}

type followLister func(ctx context.Context, username string, page int) ([]entity.FollowEntry, int, error)

func (h *FollowHandler) list(c *gin.Context, fetch followLister, msg string) {
	page := pageParam(c)
	entries, total, err := fetch(c.Request.Context(), c.Param("username"), page)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, followViews(entries), msg, response.NewPagination(page, h.Svc.PerPage, total))
}
