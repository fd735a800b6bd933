package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAPIKeyAuth is a middleware that guards the admin surface with a static
// API key presented in the x-api-key header. The relay has no end users, so
// admin access is machine-to-machine.
func AdminAPIKeyAuth(expectedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expectedKey == "" {
			// No key configured; admin surface is disabled rather than open.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin API is not configured"})
			return
		}

		provided := c.GetHeader("x-api-key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expectedKey)) != 1 {
			GetLoggerFromCtx(c.Request.Context()).Warn("Rejected admin request with missing or invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}
