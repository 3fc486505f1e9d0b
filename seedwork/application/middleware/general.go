package middleware

import (
	"time"

	"maycast/server/seedwork/application/httperr"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger is a middleware that logs the request details
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		evt := log.Info()
		if statusCode >= 500 {
			evt = log.Error()
		} else if statusCode >= 400 {
			evt = log.Warn()
		}
		evt.Str("method", method).
			Str("path", path).
			Str("client", c.ClientIP()).
			Int("status", statusCode).
			Dur("latency", latency).
			Msg("request")

		if len(c.Errors) > 0 {
			log.Error().Str("path", path).Msg(c.Errors.String())
		}

		if latency > 5*time.Second {
			log.Warn().Str("path", path).Dur("latency", latency).Msg("slow request")
		}
	}
}

// CORS middleware to handle Cross-Origin Resource Sharing. The permitted
// origin comes from CORS_ORIGIN.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, x-room-access-key, X-Chunk-Hash")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ErrorHandler translates errors attached to the context into the boundary
// error shape. Domain errors carry their own status and code; anything else
// is an opaque 500. Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		httperr.Respond(c, c.Errors.Last().Err)
	}
}
