package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware guards mutating routes with the master API key from the
// X-API-Key header. When no key is configured the routes stay disabled.
func APIKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.(*AppContext).App
		if app.MasterAPIKey == "" {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "No API key configured"})
		}
		if c.Request().Header.Get("X-API-Key") != app.MasterAPIKey {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		return next(c)
	}
}
