// Package apierror gives every error response the same JSON shape:
//
//	{"code": "slot_taken", "message": "slot is already booked: 10:00 on 2024-01-01"}
package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (b Body) Error() string { return b.Code + ": " + b.Message }

// New builds an echo.HTTPError carrying a Body.
func New(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, Body{Code: code, Message: message})
}

func BadRequest(message string) *echo.HTTPError {
	return New(http.StatusBadRequest, "bad_request", message)
}

func NotFound(what string) *echo.HTTPError {
	return New(http.StatusNotFound, "not_found", what+" not found")
}

func Forbidden(message string) *echo.HTTPError {
	return New(http.StatusForbidden, "forbidden", message)
}

func Conflict(code, message string) *echo.HTTPError {
	return New(http.StatusConflict, code, message)
}

// Internal hides err from the client; the error handler logs it.
func Internal(err error) *echo.HTTPError {
	he := New(http.StatusInternalServerError, "internal", "internal server error")
	he.Internal = err
	return he
}

// FromBooking maps the availability outcomes: a taken slot or an illegal
// status change is a conflict, anything else about the requested time is
// unprocessable. It returns nil when err is not one of them.
func FromBooking(err error) *echo.HTTPError {
	code := availability.Code(err)
	if code == "" {
		return nil
	}
	if errors.Is(err, availability.ErrSlotTaken) || errors.Is(err, availability.ErrInvalidStatusTransition) {
		return New(http.StatusConflict, code, err.Error())
	}
	return New(http.StatusUnprocessableEntity, code, err.Error())
}

func statusCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

// ErrorHandler renders errors as Body and logs server-side failures.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := Body{Code: "internal", Message: "internal server error"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case Body:
				body = m
			case string:
				body = Body{Code: statusCode(status), Message: m}
			default:
				body = Body{Code: statusCode(status), Message: http.StatusText(status)}
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
