package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yourorg/docpress/pkg/logging"
)

// ContextLoggerMiddleware attaches a contextual logger to the request context.
// The logger is pre-populated with service and request_id fields.
func ContextLoggerMiddleware(baseLogger logging.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Request ID is set by previous middleware
		requestID := GetRequestIDFromGin(c)

		fields := []logging.Field{
			logging.NewField("service", serviceName),
		}
		if requestID != "" {
			fields = append(fields, logging.NewField("request_id", requestID))
		}

		ctxLogger := baseLogger.With(fields...)

		// Attach to context
		ctx := logging.WithLogger(c.Request.Context(), ctxLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
