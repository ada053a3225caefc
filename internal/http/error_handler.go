package http

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "gateway-server/pkg/errors"
	"gateway-server/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgInternalServerError = "Internal server error"
	requestIDUnknown       = "unknown"
)

// NewHTTPErrorHandler handles errors that escape handlers and middleware:
// router misses, proxy failures and timeouts. Classified auth failures
// never get here, the auth filter answers those itself.
func NewHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := msgInternalServerError

		// a deadline surfaces from the proxy as a 502 HTTPError; the
		// timeout wrapper takes precedence
		var httpErr *echo.HTTPError
		switch {
		case errors.Is(err, apperrors.ErrTimeout):
			code = http.StatusGatewayTimeout
			message = "Gateway timeout"
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = fmt.Sprintf("%v", httpErr.Message)
		default:
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				code = http.StatusNotFound
				message = "Resource not found"
			case errors.Is(err, apperrors.ErrForbidden):
				code = http.StatusForbidden
				message = "Forbidden"
			case errors.Is(err, apperrors.ErrBadRequest):
				code = http.StatusBadRequest
				message = "Bad request"
			case errors.Is(err, apperrors.ErrTooManyRequests):
				code = http.StatusTooManyRequests
				message = "Too many requests"
			case errors.Is(err, apperrors.ErrBadGateway):
				code = http.StatusBadGateway
				message = "Bad gateway"
			}

			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && code < 500 {
				message = appErr.Message
			}
		}

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = requestIDUnknown
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", code),
			zap.String("error", logger.SanitizeLogMessage(err.Error())),
		}
		if code >= 500 {
			log.Error("internal_server_error", fields...)
			// upstream and internal details stay in the log
			message = http.StatusText(code)
			if code == http.StatusInternalServerError {
				message = msgInternalServerError
			}
		} else {
			log.Warn("client_error", fields...)
		}

		if err := c.JSON(code, map[string]interface{}{
			"error":      message,
			"request_id": requestID,
		}); err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}
