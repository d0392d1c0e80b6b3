package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterAuthRoutes sets up the session routes shared by every user type
func RegisterAuthRoutes(e *echo.Echo, h Handlers, jwt echo.MiddlewareFunc) {
	e.POST("/api/auth/logout", h.AdminAuth.Logout, jwt)
}
