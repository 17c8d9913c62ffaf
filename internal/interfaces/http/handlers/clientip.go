package handlers

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// ClientIP resolves the caller address behind proxies. Headers win over the
// socket address in the order CDN > reverse proxy > forwarding chain, and
// IPv4-mapped IPv6 prefixes are stripped so stored addresses compare equal.
func ClientIP(c *gin.Context) string {
	if ip := c.GetHeader(constants.HeaderCFConnectingIP); ip != "" {
		return normalizeIP(ip)
	}
	if ip := c.GetHeader(constants.HeaderXRealIP); ip != "" {
		return normalizeIP(ip)
	}
	if chain := c.GetHeader(constants.HeaderXForwardedFor); chain != "" {
		// First hop is the original client
		first := strings.TrimSpace(strings.SplitN(chain, ",", 2)[0])
		if first != "" {
			return normalizeIP(first)
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return normalizeIP(c.Request.RemoteAddr)
	}
	return normalizeIP(host)
}

func normalizeIP(ip string) string {
	return strings.TrimPrefix(strings.TrimSpace(ip), "::ffff:")
}
