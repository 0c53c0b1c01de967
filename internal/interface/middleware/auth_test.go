package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/pkg/helpers"
)

type stubUsers struct {
	users  map[int64]*entity.User
	pinged []int64
}

func (s *stubUsers) GetProfile(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (s *stubUsers) Ping(_ context.Context, u *entity.User) error {
	s.pinged = append(s.pinged, u.ID)
	return nil
}

func userRole() *entity.Role {
	return &entity.Role{Name: entity.RoleUser, Permissions: entity.PermFollow | entity.PermComment | entity.PermWriteArticles}
}

func setup(t *testing.T, users *stubUsers, guards ...gin.HandlerFunc) (*gin.Engine, *helpers.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt := helpers.NewJWTManager("a", "r", time.Hour, 24*time.Hour)
	r := gin.New()
	r.Use(CurrentUser(nil, jwt, users, nil))
	handlers := append(guards, func(c *gin.Context) {
		p := PrincipalFrom(c)
		if u, ok := p.User(); ok {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/who", handlers...)
	return r, jwt
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCurrentUser(t *testing.T) {
	users := &stubUsers{users: map[int64]*entity.User{7: {ID: 7, Username: "ann", Confirmed: true, Role: userRole()}}}
	r, jwt := setup(t, users)

	assert.Equal(t, "anonymous", get(r, "").Body.String())
	assert.Equal(t, "anonymous", get(r, "garbage").Body.String())

	tok, _, err := jwt.GenerateAccessToken(7, "sid")
	require.NoError(t, err)
	assert.Equal(t, "ann", get(r, tok).Body.String())
	assert.Equal(t, []int64{7}, users.pinged)

	gone, _, err := jwt.GenerateAccessToken(99, "sid")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", get(r, gone).Body.String())

	refresh, _, err := jwt.GenerateRefreshToken(7, "sid")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", get(r, refresh).Body.String(), "refresh tokens are not access tokens")
}

func TestGuards(t *testing.T) {
	users := &stubUsers{users: map[int64]*entity.User{
		1: {ID: 1, Username: "fresh", Confirmed: false, Role: userRole()},
		2: {ID: 2, Username: "ann", Confirmed: true, Role: userRole()},
	}}

	r, jwt := setup(t, users, RequireAuth(), RequireConfirmed())
	fresh, _, _ := jwt.GenerateAccessToken(1, "s")
	ann, _, _ := jwt.GenerateAccessToken(2, "s")
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, fresh).Code)
	assert.Equal(t, http.StatusOK, get(r, ann).Code)

	r, jwt = setup(t, users, RequireAdmin())
	ann, _, _ = jwt.GenerateAccessToken(2, "s")
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, ann).Code)

	r, jwt = setup(t, users, RequirePermission(entity.PermWriteArticles))
	ann, _, _ = jwt.GenerateAccessToken(2, "s")
	assert.Equal(t, http.StatusOK, get(r, ann).Code)
}

func TestRequireConfirmed_AnonymousPasses(t *testing.T) {
	r, _ := setup(t, &stubUsers{}, RequireConfirmed())
	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(RealIPKey, "10.0.0.1")
	assert.Equal(t, "rl:anon:10.0.0.1", KeyByUserID()(c))
	assert.Equal(t, "rl:ip:10.0.0.1", KeyByIP()(c))
	assert.True(t, AllowPrivateIP()(c))

	c.Set(PrincipalKey, entity.Authenticated(&entity.User{ID: 42}))
	assert.Equal(t, "rl:user:42", KeyByUserID()(c))
}

func TestRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.9", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.2", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.RemoteAddr = "192.0.2.7:4321"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "192.0.2.7", w.Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "0b9c2d8e-5d4a-4f0e-9a53-7a1f3c2b9e10")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "0b9c2d8e-5d4a-4f0e-9a53-7a1f3c2b9e10", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 0, retryAfter(-2))
	assert.Equal(t, 1, retryAfter(1))
	assert.Equal(t, 60, retryAfter(60000))
}

func TestRateLimit_NoRedisIsPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}
