package ratelimit

import (
	"github.com/labstack/echo/v4"

	httpPkg "TrendPredictor/pkg/http"
)

// Middleware rejects requests over the per-client budget with 429. Clients
// are keyed by echo's RealIP.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return httpPkg.AppErrorResponse(c, httpPkg.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
