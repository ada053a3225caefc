package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "gateway-server/pkg/errors"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds the request context. Identity calls and the
// upstream proxy both observe the deadline.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
				return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
			}
			return err
		}
	}
}
