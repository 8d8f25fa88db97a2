package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/rumorpulse/internal/platform/correlation"
)

// correlationMiddleware adopts the caller's correlation ID or mints one, and
// echoes it back on the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, id := correlation.Ensure(c.Request().Context(), c.Request().Header.Get(correlation.Header))
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}
