package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := BadRequest("EMPTY_TOKEN", "request does not contain an access token")
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "request does not contain an access token: bad request", err.Error())

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EMPTY_TOKEN", appErr.Code)
}

func TestBadGatewayKeepsCause(t *testing.T) {
	err := BadGateway("upstream failed", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, ErrBadGateway)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestInternalServerWithoutCause(t *testing.T) {
	err := InternalServer("boom", nil)
	assert.Equal(t, "boom", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
