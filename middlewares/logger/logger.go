package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/logger"
	"github.com/sirupsen/logrus"
)

// GinLogger writes one structured line per request to the shared loggers.
// Server errors go to ErrorLogger, client errors to WarnLogger.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logrus.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"route":      c.FullPath(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			entry["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			entry["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			logger.ErrorLogger.WithFields(entry).Error("request completed")
		case status >= 400:
			logger.WarnLogger.WithFields(entry).Warn("request completed")
		default:
			logger.InfoLogger.WithFields(entry).Info("request completed")
		}
	}
}
