package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourorg/docpress/pkg/logging"
)

// SlowRequestMiddleware logs a warning when a request takes longer than the
// threshold. Conversions dominate request time here, so the warning names the
// request that needs a look rather than failing it.
func SlowRequestMiddleware(threshold time.Duration, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		if latency <= threshold {
			return
		}

		fields := []logging.Field{
			logging.NewField("path", path),
			logging.NewField("method", c.Request.Method),
			logging.NewField("status", c.Writer.Status()),
			logging.NewField("duration_ms", latency.Milliseconds()),
			logging.NewField("threshold_ms", threshold.Milliseconds()),
		}
		if requestID := GetRequestIDFromGin(c); requestID != "" {
			fields = append(fields, logging.NewField("request_id", requestID))
		}
		logger.Warn("Slow request detected", fields...)
	}
}
