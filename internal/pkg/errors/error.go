package xerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common reusable application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict: resource already exists")
	ErrInternal         = errors.New("internal server error")
	ErrRateLimited      = errors.New("too many requests")
	ErrInvalidToken     = errors.New("invalid token")
	ErrAuthentication   = errors.New("authentication failed")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Error codes rendered in the "error.code" field of failed responses.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeForbidden      = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError carries the HTTP status and machine-readable code for a failure.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError.
func New(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// Validation builds a 400 error with field-level details.
func Validation(message string, details interface{}) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: message,
		Details: details,
		Err:     ErrInvalidInput,
	}
}

// Authentication builds a 401 error. The message is what the caller sees.
func Authentication(message string, err error) *AppError {
	if err == nil {
		err = ErrAuthentication
	}
	return &AppError{
		Status:  http.StatusUnauthorized,
		Code:    CodeAuthentication,
		Message: message,
		Err:     err,
	}
}

// Forbidden builds a 403 error.
func Forbidden(message string, details interface{}) *AppError {
	return &AppError{
		Status:  http.StatusForbidden,
		Code:    CodeForbidden,
		Message: message,
		Details: details,
		Err:     ErrForbidden,
	}
}

// FromError maps sentinel errors onto an AppError. Unknown errors become 500s.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, CodeNotFound, "resource not found", err)
	case errors.Is(err, ErrConflict):
		return New(http.StatusConflict, CodeConflict, "resource already exists", err)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrAuthentication), errors.Is(err, ErrUnauthorized):
		return Authentication("invalid or expired token", err)
	case errors.Is(err, ErrForbidden):
		return New(http.StatusForbidden, CodeForbidden, "insufficient permissions", err)
	case errors.Is(err, ErrInvalidInput):
		return New(http.StatusBadRequest, CodeValidation, "invalid input", err)
	case errors.Is(err, ErrRateLimited):
		return New(http.StatusTooManyRequests, CodeRateLimited, "too many requests", err)
	case errors.Is(err, ErrStoreUnavailable):
		return New(http.StatusServiceUnavailable, CodeUnavailable, "service temporarily unavailable", err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, "an unexpected error occurred", err)
	}
}
