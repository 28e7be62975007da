package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healingspace/healingspace/internal/platform/metrics"
)

// Metrics records request counts and latency labelled by the matched route
// pattern, so /api/appointments/:id stays one series.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			m.RequestStarted()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(responseStatus(c, err))
			m.RequestFinished(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
