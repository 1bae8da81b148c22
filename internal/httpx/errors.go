package httpx

import (
	"fmt"
	"net/http"
)

// Business error codes
const (
	// Success
	CodeSuccess = 0

	// Authentication/Authorization errors (1000-1099)
	CodeUnauthorized = 1001 // Not logged in / Token missing
	CodeInvalidToken = 1002 // Token invalid or bad credentials
	CodeTokenExpired = 1003 // Token expired
	CodeForbidden    = 1004 // Role may not perform the operation

	// Parameter errors (2000-2099)
	CodeParamMissing   = 2001 // Parameter missing
	CodeParamInvalid   = 2002 // Parameter format error
	CodePatternInvalid = 2003 // Pattern empty, too long or not a valid regex
	CodePayloadTooBig  = 2004 // Upload over the size limit

	// Resource/Business errors (3000-3999)
	CodeNotFound      = 3001 // Pattern not found
	CodeAlreadyExists = 3002 // Pattern string already stored

	// System errors (5000-5999)
	CodeInternalError = 5001 // Internal service error
	CodeDatabaseError = 5002 // Storage error
)

// AppError represents an application error with HTTP status and business code
type AppError struct {
	HTTPStatus int         // HTTP status code
	Code       int         // Business error code
	Message    string      // User-facing error message
	Err        error       // Internal error, logged only
	Data       interface{} // Additional data, e.g. per-row import failures
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// Unwrap exposes the internal error to errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData adds additional data to the error
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// ErrUnauthorized creates a 401 unauthorized error
func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// ErrInvalidToken creates a 401 invalid token error
func ErrInvalidToken(message string) *AppError {
	if message == "" {
		message = "invalid token"
	}
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, message, nil)
}

// ErrTokenExpired creates a 401 token expired error
func ErrTokenExpired(message string) *AppError {
	if message == "" {
		message = "token expired"
	}
	return NewAppError(http.StatusUnauthorized, CodeTokenExpired, message, nil)
}

// ErrForbidden creates a 403 permission error
func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

// ErrParamMissing creates a 400 parameter missing error
func ErrParamMissing(message string) *AppError {
	if message == "" {
		message = "parameter missing"
	}
	return NewAppError(http.StatusBadRequest, CodeParamMissing, message, nil)
}

// ErrParamInvalid creates a 400 parameter invalid error
func ErrParamInvalid(message string) *AppError {
	if message == "" {
		message = "parameter format error"
	}
	return NewAppError(http.StatusBadRequest, CodeParamInvalid, message, nil)
}

// ErrPatternInvalid creates a 400 pattern validation error
func ErrPatternInvalid(message string, err error) *AppError {
	if message == "" {
		message = "invalid pattern"
	}
	return NewAppError(http.StatusBadRequest, CodePatternInvalid, message, err)
}

// ErrPayloadTooLarge creates a 413 upload size error
func ErrPayloadTooLarge(message string) *AppError {
	if message == "" {
		message = "payload too large"
	}
	return NewAppError(http.StatusRequestEntityTooLarge, CodePayloadTooBig, message, nil)
}

// ErrNotFound creates a 404 not found error
func ErrNotFound(message string) *AppError {
	if message == "" {
		message = "resource not found"
	}
	return NewAppError(http.StatusNotFound, CodeNotFound, message, nil)
}

// ErrAlreadyExists creates a 409 already exists error
func ErrAlreadyExists(message string) *AppError {
	if message == "" {
		message = "resource already exists"
	}
	return NewAppError(http.StatusConflict, CodeAlreadyExists, message, nil)
}

// ErrInternalError creates a 500 internal error
func ErrInternalError(message string, err error) *AppError {
	if message == "" {
		message = "internal error"
	}
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, err)
}

// ErrDatabaseError creates a 500 storage error
func ErrDatabaseError(message string, err error) *AppError {
	if message == "" {
		message = "database error"
	}
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, message, err)
}
