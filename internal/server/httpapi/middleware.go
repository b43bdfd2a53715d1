package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/dmitrijs2005/syncbox/internal/server/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SubjectKey is the echo context key holding the authenticated token subject.
const SubjectKey = "subject"

// corsMiddleware answers preflights with 204 and echoes the caller's origin.
func corsMiddleware() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(string) (bool, error) { return true, nil },
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAuthorization, common.IdempotencyKeyHeader,
		},
		MaxAge: 86400,
	})
}

// bearerAuth requires a valid HS256 token. An empty secret disables it.
func bearerAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(strings.TrimSpace(raw), "Bearer ")
			if !found || token == "" {
				return fail(c, http.StatusUnauthorized, "missing bearer token")
			}
			sub, err := auth.ParseToken(token, []byte(secret))
			if err != nil {
				return fail(c, http.StatusUnauthorized, "invalid token")
			}
			c.Set(SubjectKey, sub)
			return next(c)
		}
	}
}

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug(c.Request().Context(), "request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}
