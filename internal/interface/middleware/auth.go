package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/pkg/helpers"
	"github.com/ChaoPei/flasky/pkg/response"
)

// PrincipalKey holds the entity.Principal of the request.
const PrincipalKey = "principal"

// UserLoader resolves the account behind a session and stamps its activity.
type UserLoader interface {
	GetProfile(ctx context.Context, userID int64) (*entity.User, error)
	Ping(ctx context.Context, u *entity.User) error
}

// CurrentUser resolves the access_token cookie into a Principal. Requests
// without a valid token, or whose Redis session is gone, continue as
// Anonymous. Authenticated requests update last_seen.
func CurrentUser(rdb *redis.Client, jwt *helpers.JWTManager, users UserLoader, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(PrincipalKey, entity.Anonymous())

		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if rdb != nil {
			sid, rErr := rdb.HGet(ctx, application.SessionKey(claims.UserID), "sid").Result()
			if rErr != nil || sid != claims.SessionID {
				c.Next()
				return
			}
		}
		u, err := users.GetProfile(ctx, claims.UserID)
		if err != nil {
			c.Next()
			return
		}
		if err := users.Ping(ctx, u); err != nil && logger != nil {
			logger.WithError(err).WithField("user_id", u.ID).Warn("update last_seen failed")
		}
		c.Set(PrincipalKey, entity.Authenticated(u))
		c.Next()
	}
}

// PrincipalFrom returns the request principal; Anonymous when none was set.
func PrincipalFrom(c *gin.Context) entity.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(entity.Principal); ok {
			return p
		}
	}
	return entity.Anonymous()
}

// UserFrom returns the signed-in user, if any.
func UserFrom(c *gin.Context) (*entity.User, bool) {
	return PrincipalFrom(c).User()
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PrincipalFrom(c).IsAuthenticated() {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireConfirmed rejects signed-in users who have not confirmed their
// account yet. Anonymous requests pass through.
func RequireConfirmed() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := UserFrom(c); ok && !u.Confirmed {
			response.Error[any](c, http.StatusForbidden, "account not confirmed", gin.H{"confirmed": false})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission rejects requests whose principal lacks perm. Anonymous
// requests get 401, signed-in ones 403.
func RequirePermission(perm entity.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if !p.IsAuthenticated() {
			response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		if !p.Can(perm) {
			response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequirePermission(entity.PermAdminister)
}
