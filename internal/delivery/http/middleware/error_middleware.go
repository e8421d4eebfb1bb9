package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"accounts/config"
	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/delivery/http/response"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware error handling middleware
type ErrorMiddleware struct {
	logger        *slog.Logger
	debug         bool
	unifyNotFound bool
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger, cfg *config.Config) *ErrorMiddleware {
	m := &ErrorMiddleware{
		logger: logger,
		debug:  cfg.Env.Debug,
	}
	if cfg.Auth != nil {
		m.unifyNotFound = cfg.Auth.UnifyNotFound
	}

	return m
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if m.unifyNotFound {
		err = domainerrors.UnifyNotFound(err)
	}

	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)

	// Try to parse as AppError
	if appErr, ok := domainerrors.AsAppError(err); ok {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			logger.Error("Request failed", slog.String("code", appErr.ErrorCode()), slog.Any("error", err))
		}

		_ = response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())

		return
	}

	// Check if it's Echo's HTTPError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else if httpErr.Message != nil {
			message = fmt.Sprint(httpErr.Message)
		}

		_ = response.Error(c, httpErr.Code, "HTTP_ERROR", message, "")

		return
	}

	logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	// Internal details only reach the client in debug mode.
	details := ""
	if m.debug {
		details = err.Error()
	}

	_ = response.Error(c, http.StatusInternalServerError, domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message(), details)
}
