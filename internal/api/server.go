package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewEcho builds the echo instance with the middleware stack the server runs.
func NewEcho(accessLog bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = jsonSerializer{}
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	if accessLog {
		e.Use(middleware.Logger())
	}
	return e
}
