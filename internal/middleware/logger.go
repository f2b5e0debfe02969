package middleware

import (
	"time"

	"royaltriangle/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := GetUserID(c); id != 0 {
			fields = append(fields, zap.Uint("user_id", id))
		}
		switch {
		case status >= 500:
			logger.Logger().Error("request", fields...)
		case status >= 400:
			logger.Logger().Warn("request", fields...)
		default:
			logger.Logger().Info("request", fields...)
		}
	}
}
