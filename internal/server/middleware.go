package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/fsapi/internal/common"
)

// RequestLogger logs one line per request through the structured logger.
func RequestLogger(logger *common.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		l := logger.WithRequest(c.Request.Method, path)
		attrs := []any{
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			l.Error("request", attrs...)
		case status >= 400:
			l.Warn("request", attrs...)
		default:
			l.Info("request", attrs...)
		}
	}
}
