package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal server error")
	ErrValidation       = errors.New("validation error")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrLookup           = errors.New("lookup failed")
	ErrInvalidReference = errors.New("invalid reference")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Cause      error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As
func (e *AppError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		StatusCode: http.StatusUnauthorized,
	}
}

// Lookup reports that a collaborator (ledger, catalog, lot or session source)
// could not be queried or returned data that could not be read.
func Lookup(resource string, cause error) *AppError {
	return &AppError{
		Err:        ErrLookup,
		Cause:      cause,
		Code:       "LOOKUP_ERROR",
		Message:    fmt.Sprintf("%s lookup failed", resource),
		StatusCode: http.StatusBadGateway,
	}
}

// InvalidReference reports an identifier that does not resolve to an existing entity.
func InvalidReference(resource string, id any) *AppError {
	return &AppError{
		Err:        ErrInvalidReference,
		Code:       "INVALID_REFERENCE",
		Message:    fmt.Sprintf("%s %v does not exist", resource, id),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"resource": resource, "id": fmt.Sprint(id)},
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
