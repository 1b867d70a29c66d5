package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"

	CodeUnauthenticated = "UNAUTHENTICATED"
)

// AppError carries a client-facing code and HTTP status alongside the cause.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Err: err}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource), Status: http.StatusNotFound, Err: err}
}

func Unauthenticated(message string, err error) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message, Status: http.StatusUnauthorized, Err: err}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden, Err: err}
}

func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf maps any error to an HTTP status; unknown errors are server errors.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
