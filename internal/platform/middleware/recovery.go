package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/metrics"
)

const maxPanicFrames = 32

// Recovery converts a handler panic into a 500 that the error handler renders
// as {"error": ...} and logs it with the caller and route.
// http.ErrAbortHandler is re-raised for net/http.
func Recovery(logger zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				m.PanicRecovered(route)

				logger.Error().
					Str("request_id", requestID(c)).
					Str("user", auth.UserIDFromContext(c.Request().Context())).
					Str("method", c.Request().Method).
					Str("route", route).
					Str("panic", fmt.Sprintf("%v", r)).
					Strs("stack", panicFrames(3)).
					Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError).
					SetInternal(fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}

// panicFrames lists the panicking goroutine's frames as "func file:line",
// dropping runtime internals.
func panicFrames(skip int) []string {
	pcs := make([]uintptr, maxPanicFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		}
		if !more {
			break
		}
	}
	return out
}
