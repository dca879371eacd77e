package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourorg/docpress/pkg/errors"
	"github.com/yourorg/docpress/pkg/logging"
)

func TestErrorHandlerMiddleware_HandlesAppError(t *testing.T) {
	logger, _ := logging.NewLogger("info", "json")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		SetError(c, errors.NewNotFoundError("output not found"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "output not found")
}

func TestErrorHandlerMiddleware_MapsConversionErrors(t *testing.T) {
	logger, _ := logging.NewLogger("info", "json")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware(logger))
	router.POST("/convert", func(c *gin.Context) {
		SetError(c, errors.NewFileTooLargeError("File too large. Maximum size allowed: 50MB"))
	})

	req := httptest.NewRequest("POST", "/convert", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_TOO_LARGE")
}

func TestErrorHandlerMiddleware_SetsServiceHandledHeader(t *testing.T) {
	logger, _ := logging.NewLogger("info", "json")
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		err := errors.NewInternalError("internal error").SetHandledByService(true)
		SetError(c, err)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Service-Handled"))
}
