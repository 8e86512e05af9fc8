package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"moviecatalog/pkg/requestctx"
)

const HeaderCorrelationID = "X-Correlation-Id"

// correlation id middleware
func withCorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(HeaderCorrelationID)
		if cid == "" {
			cid = xid.New().String()
		}
		c.Header(HeaderCorrelationID, cid)
		c.Request.Header.Set(HeaderCorrelationID, cid)
		c.Request = c.Request.WithContext(requestctx.WithCorrelationID(c.Request.Context(), cid))
		c.Next()
	}
}

// logging middleware
func withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("correlation_id", requestctx.CorrelationID(c.Request.Context())).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	}
}

// withRecovery turns handler panics into 500 responses and logs them.
func withRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("correlation_id", requestctx.CorrelationID(c.Request.Context())).
			Msg("handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
