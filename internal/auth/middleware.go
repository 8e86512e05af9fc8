package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// CtxAdminKey holds the authorized admin username in the gin context.
	CtxAdminKey = "auth_admin"
	realm       = `Basic realm="moviecatalog"`
)

// RequireAdmin aborts the request with 401 unless it carries HTTP Basic
// credentials accepted by gate.
func RequireAdmin(gate *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, secret, ok := c.Request.BasicAuth()
		if !ok || !gate.Authorize(user, secret) {
			log.Warn().
				Str("path", c.Request.URL.Path).
				Str("remote_ip", c.ClientIP()).
				Bool("credentials_present", ok).
				Msg("admin authorization refused")
			c.Header("WWW-Authenticate", realm)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
			return
		}

		c.Set(CtxAdminKey, user)
		c.Next()
	}
}

// AdminName returns the authorized admin username, or "" when the request
// did not pass RequireAdmin.
func AdminName(c *gin.Context) string {
	v, ok := c.Get(CtxAdminKey)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}
