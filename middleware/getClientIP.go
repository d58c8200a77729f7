package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// getClientIP resolves the caller's address for rate limiting. Forwarding
// headers are only trusted when they carry a parseable IP; otherwise the
// connection's remote address wins.
func getClientIP(c *gin.Context) string {
	// X-Forwarded-For may hold a comma-separated chain; the first valid entry
	// is the original client.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		for _, entry := range strings.Split(xff, ",") {
			entry = strings.TrimSpace(entry)
			if net.ParseIP(entry) != nil {
				return entry
			}
		}
	}

	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	// RemoteAddr is usually "ip:port"; strip the port if present.
	addr := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
