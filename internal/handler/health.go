package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Welcome answers the root path.
func Welcome(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome to auth service")
}
