package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound        = errors.New("resource not found")
	ErrBadRequest      = errors.New("bad request")
	ErrForbidden       = errors.New("forbidden")
	ErrInternalServer  = errors.New("internal server error")
	ErrTooManyRequests = errors.New("too many requests")
	ErrBadGateway      = errors.New("bad gateway")
	ErrTimeout         = errors.New("request timed out")
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
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

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: msg, Err: ErrNotFound}
}

func BadRequest(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrBadRequest}
}

func Forbidden(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrForbidden}
}

func InternalServer(msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL_SERVER_ERROR", Message: msg, Err: err}
}

func BadGateway(msg string, err error) *AppError {
	return &AppError{Code: "BAD_GATEWAY", Message: msg, Err: fmt.Errorf("%w: %w", ErrBadGateway, err)}
}
