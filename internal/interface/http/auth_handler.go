package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/interface/middleware"
	"github.com/ChaoPei/flasky/pkg/helpers"
	"github.com/ChaoPei/flasky/pkg/response"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.SessionCookies
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookies *helpers.SessionCookies) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email,max=64"`
	Username  string `json:"username" binding:"required,max=64,username"`
	Password  string `json:"password" binding:"required,pwd"`
	Password2 string `json:"password2" binding:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	Password    string `json:"password" binding:"required,pwd"`
	Password2   string `json:"password2" binding:"required,eqfield=Password"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email,max=64"`
}

type resetConfirmRequest struct {
	Email     string `json:"email" binding:"required,email,max=64"`
	Token     string `json:"token" binding:"required"`
	Password  string `json:"password" binding:"required,pwd"`
	Password2 string `json:"password2" binding:"required,eqfield=Password"`
}

type changeEmailRequest struct {
	Email    string `json:"email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, userView(u, entity.Authenticated(u)), "a confirmation email has been sent", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"user": userView(u, entity.Authenticated(u)), "confirmed": u.Confirmed}, "login successful",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if u, ok := middleware.UserFrom(c); ok {
		h.Svc.Logout(c.Request.Context(), u.ID)
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "you have been logged out", nil)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	u, ok := p.User()
	if !ok {
		response.Success[any](c, http.StatusOK, gin.H{"authenticated": false}, "anonymous", nil)
		return
	}
	perms := 0
	if u.Role != nil {
		perms = int(u.Role.Permissions)
	}
	response.Success[any](c, http.StatusOK, gin.H{
		"authenticated": true,
		"user":          userView(u, p),
		"permissions":   perms,
	}, "current user", nil)
}

// Confirm POST /api/auth/confirm {token}
func (h *AuthHandler) Confirm(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Svc.Confirm(c.Request.Context(), u.ID, req.Token); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"confirmed": true}, "you have confirmed your account", nil)
}

// ResendConfirmation POST /api/auth/confirm/resend
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	sent, err := h.Svc.ResendConfirmation(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	msg := "a new confirmation email has been sent"
	if !sent {
		msg = "account already confirmed"
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": sent}, msg, nil)
}

// ChangePassword POST /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), u.ID, req.OldPassword, req.Password); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "your password has been updated", nil)
}

// ResetInit POST /api/auth/reset/init {email}
// The answer is the same whether or not the address is registered.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if !bind(c, &req) {
		return
	}
	_ = h.Svc.RequestPasswordReset(c.Request.Context(), req.Email)
	response.Success[any](c, http.StatusOK, gin.H{"requested": true}, "an email with instructions to reset your password has been sent to you", nil)
}

// ResetConfirm POST /api/auth/reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.Token, req.Password); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "your password has been updated", nil)
}

// ChangeEmailInit POST /api/auth/email/init
func (h *AuthHandler) ChangeEmailInit(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	var req changeEmailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Svc.RequestEmailChange(c.Request.Context(), u.ID, req.Email, req.Password); err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"requested": true}, "an email with instructions to confirm your new email address has been sent to you", nil)
}

// ChangeEmailConfirm POST /api/auth/email/confirm {token}
func (h *AuthHandler) ChangeEmailConfirm(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	updated, err := h.Svc.ChangeEmail(c.Request.Context(), u.ID, req.Token)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userView(updated, entity.Authenticated(updated)), "your email address has been updated", nil)
}
