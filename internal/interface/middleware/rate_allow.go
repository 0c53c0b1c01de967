package middleware

import (
	"net/netip"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP exempts loopback and private-range clients from limiting.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		addr, err := netip.ParseAddr(ClientIP(c))
		return err == nil && (addr.IsLoopback() || addr.IsPrivate())
	}
}
