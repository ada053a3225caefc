package auth

import (
	apperrors "gateway-server/pkg/errors"
)

// Classified failures. Anything else reaching the filter is UNKNOWN_ERROR.
var (
	ErrEmptyToken       = apperrors.BadRequest(codeEmptyToken, msgEmptyToken)
	ErrInvalidToken     = apperrors.BadRequest(codeInvalidToken, msgInvalidToken)
	ErrPermissionDenied = apperrors.Forbidden(codePermissionDenied, msgPermissionDenied)
)
