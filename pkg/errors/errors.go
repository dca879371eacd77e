package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	// ErrorCodeInternal represents an internal server error.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeNotFound represents a resource not found error.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrorCodeGone represents a resource that existed but has expired.
	ErrorCodeGone ErrorCode = "GONE"
	// ErrorCodeBadRequest represents a bad request error.
	ErrorCodeBadRequest ErrorCode = "BAD_REQUEST"
	// ErrorCodeValidation represents a validation error.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeUnsupportedType represents an upload with a disallowed file type.
	ErrorCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"
	// ErrorCodeFileTooLarge represents an upload above the size ceiling.
	ErrorCodeFileTooLarge ErrorCode = "FILE_TOO_LARGE"
	// ErrorCodeInvalidStructure represents a file whose content does not match
	// its claimed format (corrupted or mislabeled).
	ErrorCodeInvalidStructure ErrorCode = "INVALID_STRUCTURE"
	// ErrorCodeToolUnavailable represents a missing conversion delegate
	// (office suite or browser not installed).
	ErrorCodeToolUnavailable ErrorCode = "TOOL_UNAVAILABLE"
	// ErrorCodeConversionTimeout represents a delegate that exceeded its deadline.
	ErrorCodeConversionTimeout ErrorCode = "CONVERSION_TIMEOUT"
	// ErrorCodeConversionFailed represents a delegate that ran and failed, or
	// produced output that did not verify as a PDF.
	ErrorCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
)

// AppError represents an application error with code, message, and HTTP status.
type AppError struct {
	Code             ErrorCode
	Message          string
	HTTPStatus       int
	Err              error
	Details          map[string]interface{}
	HandledByService bool // Indicates if the service has already handled/alerted on this error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAppErrorWithErr creates a new application error with an underlying error.
func NewAppErrorWithErr(code ErrorCode, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// SetHandledByService marks the error as handled by the service.
func (e *AppError) SetHandledByService(handled bool) *AppError {
	e.HandledByService = handled
	return e
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Code             ErrorCode              `json:"code"`
	Message          string                 `json:"message"`
	Details          map[string]interface{} `json:"details,omitempty"`
	HandledByService bool                   `json:"handled_by_service,omitempty"`
}

// ToErrorResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Code:             e.Code,
		Message:          e.Message,
		Details:          e.Details,
		HandledByService: e.HandledByService,
	}
}

// ToHTTPStatus maps an error code to HTTP status code.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrorCodeBadRequest, ErrorCodeValidation, ErrorCodeUnsupportedType:
		return http.StatusBadRequest
	case ErrorCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeInvalidStructure:
		return http.StatusUnprocessableEntity
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeGone:
		return http.StatusGone
	case ErrorCodeToolUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeConversionTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeConversionFailed:
		return http.StatusBadGateway
	case ErrorCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts a standard error to an AppError.
// If the error is already an AppError, it returns it as-is.
// Otherwise, it wraps it as an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return NewAppErrorWithErr(
		ErrorCodeInternal,
		"An internal error occurred",
		http.StatusInternalServerError,
		err,
	)
}

// Common error constructors

// NewBadRequestError creates a bad request error.
func NewBadRequestError(message string) *AppError {
	return NewAppError(ErrorCodeBadRequest, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrorCodeNotFound, message, http.StatusNotFound)
}

// NewGoneError creates an error for an expired resource.
func NewGoneError(message string) *AppError {
	return NewAppError(ErrorCodeGone, message, http.StatusGone)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternal, message, http.StatusInternalServerError)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
}

// NewUnsupportedTypeError creates an error for a disallowed file type.
func NewUnsupportedTypeError(message string) *AppError {
	return NewAppError(ErrorCodeUnsupportedType, message, http.StatusBadRequest)
}

// NewFileTooLargeError creates an error for an oversized upload.
func NewFileTooLargeError(message string) *AppError {
	return NewAppError(ErrorCodeFileTooLarge, message, http.StatusRequestEntityTooLarge)
}

// NewInvalidStructureError creates an error for content that does not match
// its claimed format.
func NewInvalidStructureError(message string) *AppError {
	return NewAppError(ErrorCodeInvalidStructure, message, http.StatusUnprocessableEntity)
}

// NewToolUnavailableError creates an error for a missing conversion delegate.
func NewToolUnavailableError(message string) *AppError {
	return NewAppError(ErrorCodeToolUnavailable, message, http.StatusServiceUnavailable)
}

// NewConversionTimeoutError creates an error for a delegate deadline overrun.
func NewConversionTimeoutError(message string) *AppError {
	return NewAppError(ErrorCodeConversionTimeout, message, http.StatusGatewayTimeout)
}

// NewConversionFailedError creates an error for a failed conversion run.
func NewConversionFailedError(message string) *AppError {
	return NewAppError(ErrorCodeConversionFailed, message, http.StatusBadGateway)
}
