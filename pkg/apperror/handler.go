package apperror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the body written for every failed request
type Response struct {
	Error string `json:"error"`
}

// HTTPErrorHandler returns an Echo error handler rendering {"error": "<message>"}.
// Unknown routes map to ErrInvalidEndpoint.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := resolve(err)

		if appErr.HTTPStatus >= 500 {
			log.Error("request error",
				slog.Int("status", appErr.HTTPStatus),
				slog.String("path", c.Request().URL.Path),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.HTTPStatus)
			return
		}
		_ = c.JSON(appErr.HTTPStatus, Response{Error: appErr.Message})
	}
}

func resolve(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return ErrInvalidEndpoint
		case http.StatusMethodNotAllowed:
			return ErrMethodNotAllowed
		}
		if msg, ok := he.Message.(string); ok {
			return New(he.Code, http.StatusText(he.Code), msg)
		}
		return New(he.Code, http.StatusText(he.Code), http.StatusText(he.Code))
	}

	return ErrInternal.WithInternal(err)
}
