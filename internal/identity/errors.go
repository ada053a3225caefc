package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable covers transport failures, timeouts and cancellation.
	ErrUpstreamUnavailable = errors.New("identity service unavailable")
	// ErrUpstreamError is any non-2xx answer other than 404.
	ErrUpstreamError = errors.New("identity service error")
	// ErrMalformedResponse means the payload could not be decoded into its contract.
	ErrMalformedResponse = errors.New("malformed identity service response")
	// ErrProfileNotFound is a 404 on the profile lookup.
	ErrProfileNotFound = errors.New("profile not found")

	errNotFound = errors.New("not found")
)

// StatusError carries the unexpected status of an identity service call.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(errStatusFmt, e.Operation, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamError
}
