package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a request for key may proceed.
type Allower interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	Capacity     float64
	RefillPerSec float64
	// Skipper excludes routes such as health checks.
	Skipper func(c echo.Context) bool
}

// RateLimit rejects requests from a client IP whose bucket is empty.
func RateLimit(limiter Allower, cfg RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Capacity <= 0 || (cfg.Skipper != nil && cfg.Skipper(c)) {
				return next(c)
			}
			if !limiter.Allow(c.RealIP(), cfg.Capacity, cfg.RefillPerSec) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
