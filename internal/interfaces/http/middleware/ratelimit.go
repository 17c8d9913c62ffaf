package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/infrastructure/ratelimit"
	"github.com/keygate-io/keygate/internal/interfaces/http/handlers"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// RateLimit enforces the per-IP limit on the public verify endpoint.
// Limiter failures fail open: an unavailable Redis must not take down
// license verification for every client.
func RateLimit(limiter ratelimit.RateLimiter, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := handlers.ClientIP(c)

		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warnw("rate limiter unavailable", "ip", ip, "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
