package httpservice

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourorg/docpress/pkg/logging"
)

// maxLoggedBody caps how much of a body makes it into a log line. Uploads
// and PDFs never do; only JSON payloads are worth keeping.
const maxLoggedBody = 4 << 10

// jsonResponseWriter wraps gin.ResponseWriter and captures the response body,
// but only while the response declares itself as JSON.
type jsonResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *jsonResponseWriter) Write(b []byte) (int, error) {
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// BodyLoggingMiddleware logs JSON request and response bodies at debug level.
// Multipart uploads and binary downloads are skipped; their sizes show up in
// the regular request log instead.
func BodyLoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Read and log request body, JSON only
		var requestBody []byte
		contentType := c.ContentType()
		if c.Request.Body != nil && contentType == "application/json" {
			requestBody, _ = io.ReadAll(c.Request.Body)
			// Restore the body for handlers to read
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		// Capture response body
		responseBodyWriter := &jsonResponseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBufferString(""),
		}
		c.Writer = responseBodyWriter

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		fields := []logging.Field{
			logging.NewField("method", c.Request.Method),
			logging.NewField("path", c.Request.URL.Path),
			logging.NewField("status", c.Writer.Status()),
			logging.NewField("latency_ms", latency.Milliseconds()),
		}

		// Add request ID
		if requestID, exists := c.Get("request_id"); exists {
			fields = append(fields, logging.NewField("request_id", requestID))
		}

		// Add request body
		if len(requestBody) > 0 && len(requestBody) <= maxLoggedBody {
			var requestBodyJSON interface{}
			if err := json.Unmarshal(requestBody, &requestBodyJSON); err == nil {
				fields = append(fields, logging.NewField("request_body", requestBodyJSON))
			}
		}

		// Add response body
		if responseBodyWriter.body.Len() > 0 {
			var responseBodyJSON interface{}
			if err := json.Unmarshal(responseBodyWriter.body.Bytes(), &responseBodyJSON); err == nil {
				fields = append(fields, logging.NewField("response_body", responseBodyJSON))
			}
		}

		logger.Debug("HTTP request/response bodies", fields...)
	}
}
