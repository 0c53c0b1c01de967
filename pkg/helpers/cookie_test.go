package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	jar := &SessionCookies{Domain: "app.test", Secure: true, Now: func() time.Time { return now }}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jar.SetPair(c, "acc", now.Add(time.Hour), "ref", now.Add(24*time.Hour))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	byName := map[string]*http.Cookie{}
	for _, ck := range cookies {
		byName[ck.Name] = ck
	}
	assert.Equal(t, "acc", byName[AccessCookie].Value)
	assert.Equal(t, 3600, byName[AccessCookie].MaxAge)
	assert.Equal(t, 86400, byName[RefreshCookie].MaxAge)
	assert.True(t, byName[AccessCookie].HttpOnly)
	assert.True(t, byName[AccessCookie].Secure)
	assert.Equal(t, http.SameSiteLaxMode, byName[AccessCookie].SameSite)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	jar.Clear(c)
	for _, ck := range w.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}
}
