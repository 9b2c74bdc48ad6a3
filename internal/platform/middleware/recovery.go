package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
)

// Recovery turns a handler panic into the same 500 body as any other
// internal error. The log entry carries the matched route and the caller so
// a failing booking or schedule edit can be traced back to its clinic.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				// net/http uses this to abort a response on purpose.
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				rid, _ := c.Get("request_id").(string)
				uid, _ := c.Get("user_id").(string)

				logger.Error().
					Err(perr).
					Str("request_id", rid).
					Str("user_id", uid).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				err = apierror.Internal(errors.Join(errPanic, perr))
			}()
			return next(c)
		}
	}
}

var errPanic = errors.New("handler panicked")
