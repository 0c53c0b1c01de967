package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// SessionCookies writes the access/refresh token pair as HttpOnly cookies.
type SessionCookies struct {
	Domain string
	Secure bool
	Now    func() time.Time
}

func NewSessionCookies(domain string, secure bool) *SessionCookies {
	return &SessionCookies{Domain: domain, Secure: secure, Now: time.Now}
}

func (s *SessionCookies) SetPair(c *gin.Context, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	s.write(c, AccessCookie, access, s.maxAge(accessExp))
	s.write(c, RefreshCookie, refresh, s.maxAge(refreshExp))
}

// Clear expires both cookies.
func (s *SessionCookies) Clear(c *gin.Context) {
	s.write(c, AccessCookie, "", -1)
	s.write(c, RefreshCookie, "", -1)
}

func (s *SessionCookies) write(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", s.Domain, s.Secure, true)
}

func (s *SessionCookies) maxAge(exp time.Time) int {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if sec := int(exp.Sub(now).Seconds()); sec > 0 {
		return sec
	}
	// expiring now; -1 would delete the cookie outright
	return 1
}
