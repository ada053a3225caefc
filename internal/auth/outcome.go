package auth

import (
	"errors"
	"net/http"
)

// Outcome is the result of one request's authorization attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeEmptyToken
	OutcomeInvalidToken
	OutcomePermissionDenied
	OutcomeUnknownError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeEmptyToken:
		return "EMPTY_TOKEN"
	case OutcomeInvalidToken:
		return "INVALID_TOKEN"
	case OutcomePermissionDenied:
		return "PERMISSION_DENIED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// StatusCode is the HTTP status written for a failed outcome.
func (o Outcome) StatusCode() int {
	switch o {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeEmptyToken, OutcomeInvalidToken:
		return http.StatusBadRequest
	case OutcomePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message is the fixed response body for a failed outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return ""
	case OutcomeEmptyToken:
		return msgEmptyToken
	case OutcomeInvalidToken:
		return msgInvalidToken
	case OutcomePermissionDenied:
		return msgPermissionDenied
	default:
		return msgUnknownError
	}
}

// guestOverridable lists the failures a guest-accessible route forgives.
// PERMISSION_DENIED is excluded: it comes from a real account.
func (o Outcome) guestOverridable() bool {
	switch o {
	case OutcomeEmptyToken, OutcomeInvalidToken, OutcomeUnknownError:
		return true
	default:
		return false
	}
}

// Classify maps a resolution error onto the outcome taxonomy.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrEmptyToken):
		return OutcomeEmptyToken
	case errors.Is(err, ErrInvalidToken):
		return OutcomeInvalidToken
	case errors.Is(err, ErrPermissionDenied):
		return OutcomePermissionDenied
	default:
		return OutcomeUnknownError
	}
}
