package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/logger"
)

func shouldSkipLogging(path string) bool {
	return path == "/health"
}

// LogRequest logs each request with its outcome and latency. Bodies are
// never logged; summarize requests can carry large README-sized payloads
// and validate requests carry secrets.
func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldSkipLogging(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("correlation_id", c.GetString("correlationID")),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		if c.Writer.Status() >= 500 {
			logger.Error("Request completed", fields...)
		} else {
			logger.Info("Request completed", fields...)
		}
	}
}
