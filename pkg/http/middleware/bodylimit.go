package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit rejects requests whose body exceeds limit ("512K", "60M", "1G").
// An unparsable limit disables the check.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes, ok := ParseSize(limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ok {
				return next(c)
			}
			req := c.Request()
			if req.ContentLength > maxBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
					"status":  http.StatusRequestEntityTooLarge,
					"message": http.StatusText(http.StatusRequestEntityTooLarge),
				})
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			return next(c)
		}
	}
}

// ParseSize converts a human size with an optional K/M/G suffix to bytes.
func ParseSize(s string) (int64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1<<10, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1<<30, strings.TrimSuffix(s, "G")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * mult, true
}
