package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/response"
)

type AdminHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.UserService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type adminProfileRequest struct {
	Email     string `json:"email" binding:"required,email,max=64"`
	Username  string `json:"username" binding:"required,max=64,username"`
	Confirmed bool   `json:"confirmed"`
	RoleID    int64  `json:"role_id" binding:"required,gt=0"`
	Name      string `json:"name" binding:"max=64"`
	Location  string `json:"location" binding:"max=64"`
	AboutMe   string `json:"about_me"`
}

// Roles GET /api/admin/roles
func (h *AdminHandler) Roles(c *gin.Context) {
	roles, err := h.Svc.Roles(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	out := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleView(r))
	}
	response.Success(c, http.StatusOK, out, "roles", nil)
}

// EditProfile PUT /api/admin/users/:id
func (h *AdminHandler) EditProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req adminProfileRequest
	if !bind(c, &req) {
		return
	}
	p := middleware.PrincipalFrom(c)
	u, err := h.Svc.AdminUpdateProfile(c.Request.Context(), p, id, application.AdminProfileInput{
		Email:     req.Email,
		Username:  req.Username,
		Confirmed: req.Confirmed,
		RoleID:    req.RoleID,
		Name:      req.Name,
		Location:  req.Location,
		AboutMe:   req.AboutMe,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u, p), "the profile has been updated", nil)
}
