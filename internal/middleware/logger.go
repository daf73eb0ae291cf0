package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
)

// Logger middleware logs HTTP requests and puts l into the request context
func Logger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), l))

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			l.Error("request failed", fields...)
		case status >= 400:
			l.Warn("request rejected", fields...)
		default:
			l.Info("request handled", fields...)
		}
	}
}
