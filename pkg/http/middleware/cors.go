package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CORSConfig lists what browsers may send cross-origin. "*" in AllowOrigins
// admits any origin.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// CORS answers preflight requests itself and decorates the others. The
// request origin is echoed back, so responses vary by Origin.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	anyOrigin := false
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}

	allowed := func(origin string) bool {
		if anyOrigin {
			return true
		}
		_, ok := origins[origin]
		return ok
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			origin := req.Header.Get(echo.HeaderOrigin)
			preflight := req.Method == http.MethodOptions &&
				req.Header.Get(echo.HeaderAccessControlRequestMethod) != ""

			if origin == "" {
				if preflight {
					return c.NoContent(http.StatusNoContent)
				}
				return next(c)
			}
			if !allowed(origin) {
				if preflight {
					return c.NoContent(http.StatusForbidden)
				}
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			if !preflight {
				return next(c)
			}

			h.Add(echo.HeaderVary, echo.HeaderAccessControlRequestMethod)
			h.Add(echo.HeaderVary, echo.HeaderAccessControlRequestHeaders)
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			if maxAge != "" {
				h.Set(echo.HeaderAccessControlMaxAge, maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
