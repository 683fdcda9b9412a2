package middleware

import (
	"time"

	applogger "GanttGen/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			switch {
			case res.Status >= 500:
				l.Error("http request", fields...)
			case res.Status >= 400:
				l.Warn("http request", fields...)
			default:
				l.Info("http request", fields...)
			}

			return nil
		}
	}
}
