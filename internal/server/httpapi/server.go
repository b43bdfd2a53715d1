package httpapi

import (
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// New builds the echo instance serving the Remote API. secret enables
// bearer authentication on the entries routes.
func New(svc EntryService, secret string, logger logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(corsMiddleware())

	Register(e, svc, secret)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc EntryService, secret string) {
	e.GET("/api/ping", ping)

	g := e.Group("/api/entries", bearerAuth(secret))
	g.GET("", listEntries(svc))
	g.POST("", createEntry(svc))
	g.PATCH("/:id", patchEntry(svc))
	g.DELETE("/:id", deleteEntry(svc))
}
