package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/response"
)

const maxAvatarBytes = 2 << 20

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name     string `json:"name" binding:"max=64"`
	Location string `json:"location" binding:"max=64"`
	AboutMe  string `json:"about_me"`
}

// Profile GET /api/users/:username?page=
func (h *UserHandler) Profile(c *gin.Context) {
	viewer := middleware.PrincipalFrom(c)
	page := pageParam(c)
	p, err := h.Svc.Profile(c.Request.Context(), viewer, c.Param("username"), page)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, profileView(p, viewer), "profile",
		response.NewPagination(page, h.Svc.PostsPerPage, p.PostsTotal))
}

// Me GET /api/profile
func (h *UserHandler) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	u, _ := p.User()
	response.Success(c, http.StatusOK, userView(u, p), "profile", nil)
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	var req updateProfileRequest
	if !bind(c, &req) {
		return
	}
	updated, err := h.Svc.UpdateProfile(c.Request.Context(), u.ID, application.ProfileInput{
		Name:     req.Name,
		Location: req.Location,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userView(updated, middleware.PrincipalFrom(c)), "your profile has been updated", nil)
}

// UploadAvatar POST /api/profile/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "is required"})
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "must be at most 2MB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), sizeParam(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}
