package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/response"
)

type ModerationHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
}

func NewModerationHandler(svc *application.PostService, logger *logrus.Logger) *ModerationHandler {
	return &ModerationHandler{Svc: svc, Logger: logger}
}

// Comments GET /api/moderate/comments?page=
func (h *ModerationHandler) Comments(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	page := pageParam(c)
	comments, total, err := h.Svc.ListComments(c.Request.Context(), p, page)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, commentViews(comments, p), "comments", response.NewPagination(page, h.Svc.CommentsPerPage, total))
}

// Enable POST /api/moderate/comments/:id/enable
func (h *ModerationHandler) Enable(c *gin.Context) { h.set(c, false) }

// Disable POST /api/moderate/comments/:id/disable
func (h *ModerationHandler) Disable(c *gin.Context) { h.set(c, true) }

func (h *ModerationHandler) set(c *gin.Context, disabled bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p := middleware.PrincipalFrom(c)
	cm, err := h.Svc.SetCommentDisabled(c.Request.Context(), p, id, disabled)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, commentView(cm, p), "comment updated", nil)
}
