package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	t.Run("Without underlying error", func(t *testing.T) {
		err := NewFileTooLargeError("File too large. Maximum size allowed: 50MB")
		assert.Equal(t, "FILE_TOO_LARGE: File too large. Maximum size allowed: 50MB", err.Error())
	})

	t.Run("With underlying error", func(t *testing.T) {
		cause := errors.New("exit status 1")
		err := NewAppErrorWithErr(ErrorCodeConversionFailed, "Conversion failed", http.StatusBadGateway, cause)
		assert.Contains(t, err.Error(), "CONVERSION_FAILED")
		assert.Contains(t, err.Error(), "exit status 1")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeBadRequest:        http.StatusBadRequest,
		ErrorCodeValidation:        http.StatusBadRequest,
		ErrorCodeUnsupportedType:   http.StatusBadRequest,
		ErrorCodeFileTooLarge:      http.StatusRequestEntityTooLarge,
		ErrorCodeInvalidStructure:  http.StatusUnprocessableEntity,
		ErrorCodeNotFound:          http.StatusNotFound,
		ErrorCodeGone:              http.StatusGone,
		ErrorCodeToolUnavailable:   http.StatusServiceUnavailable,
		ErrorCodeConversionTimeout: http.StatusGatewayTimeout,
		ErrorCodeConversionFailed:  http.StatusBadGateway,
		ErrorCodeInternal:          http.StatusInternalServerError,
		ErrorCode("UNKNOWN"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestConstructorsAgreeWithMapping(t *testing.T) {
	constructors := []*AppError{
		NewBadRequestError("m"),
		NewValidationError("m"),
		NewUnsupportedTypeError("m"),
		NewFileTooLargeError("m"),
		NewInvalidStructureError("m"),
		NewNotFoundError("m"),
		NewGoneError("m"),
		NewToolUnavailableError("m"),
		NewConversionTimeoutError("m"),
		NewConversionFailedError("m"),
		NewInternalError("m"),
	}
	for _, appErr := range constructors {
		assert.Equal(t, ToHTTPStatus(appErr.Code), appErr.HTTPStatus, "code %s", appErr.Code)
	}
}

func TestFromError(t *testing.T) {
	t.Run("Nil stays nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
	})

	t.Run("AppError passes through", func(t *testing.T) {
		orig := NewInvalidStructureError("Invalid DOCX file format")
		assert.Same(t, orig, FromError(orig))
	})

	t.Run("Plain error wraps as internal", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		appErr := FromError(cause)
		assert.Equal(t, ErrorCodeInternal, appErr.Code)
		assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
		assert.True(t, errors.Is(appErr, cause))
	})
}

func TestWithDetails(t *testing.T) {
	err := NewUnsupportedTypeError("Unsupported file type: .exe").
		WithDetails(map[string]interface{}{"allowed": []string{"docx", "pptx", "txt", "md"}})
	resp := err.ToErrorResponse()
	assert.Equal(t, ErrorCodeUnsupportedType, resp.Code)
	assert.NotNil(t, resp.Details["allowed"])
}
