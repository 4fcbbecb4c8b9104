package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels every AppError wraps, for errors.Is checks across layers.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTimeout            = errors.New("operation timed out")
)

// AppError is an error that knows its HTTP status and wire code.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
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

type kind struct {
	sentinel error
	code     string
	status   int
}

var (
	kindNotFound     = kind{ErrNotFound, "NOT_FOUND", http.StatusNotFound}
	kindUnauthorized = kind{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized}
	kindBadRequest   = kind{ErrBadRequest, "BAD_REQUEST", http.StatusBadRequest}
	kindConflict     = kind{ErrConflict, "CONFLICT", http.StatusConflict}
	kindInternal     = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError}
	kindTimeout      = kind{ErrTimeout, "TIMEOUT", http.StatusGatewayTimeout}
	kindValidation   = kind{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest}
	kindCredentials  = kind{ErrInvalidCredentials, "INVALID_CREDENTIALS", http.StatusUnauthorized}
	kindTokenExpired = kind{ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized}
	kindTokenInvalid = kind{ErrTokenInvalid, "TOKEN_INVALID", http.StatusUnauthorized}
)

func (k kind) new(message string) *AppError {
	return &AppError{Err: k.sentinel, Code: k.code, Message: message, StatusCode: k.status}
}

// NotFound reports "<resource> not found".
func NotFound(resource string) *AppError {
	return kindNotFound.new(resource + " not found")
}

// NotFoundf is NotFound with a caller-written message.
func NotFoundf(format string, args ...interface{}) *AppError {
	return kindNotFound.new(fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *AppError { return kindUnauthorized.new(message) }
func BadRequest(message string) *AppError   { return kindBadRequest.new(message) }
func Conflict(message string) *AppError     { return kindConflict.new(message) }
func Internal(message string) *AppError     { return kindInternal.new(message) }

// Timeout is returned when a transaction runs past its deadline.
func Timeout(message string) *AppError { return kindTimeout.new(message) }

// Validation carries one message per offending field.
func Validation(details map[string]string) *AppError {
	e := kindValidation.new("validation failed")
	e.Details = details
	return e
}

func InvalidCredentials() *AppError { return kindCredentials.new("invalid email or password") }
func TokenExpired() *AppError       { return kindTokenExpired.new("token has expired") }
func TokenInvalid() *AppError       { return kindTokenInvalid.new("invalid token") }

// StatusCode returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
