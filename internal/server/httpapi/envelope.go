package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/labstack/echo/v4"
)

type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{OK: true, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{OK: false, Error: msg})
}

// errorHandler renders handler errors as envelopes. Internal failures are
// logged and reported without detail.
func errorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = fail(c, status, msg)
		}
		if err != nil {
			logger.Error(c.Request().Context(), "writing error response", "error", err)
		}
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		msg, _ := he.Message.(string)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Unauthorized"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

func validationMessage(err error) string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
