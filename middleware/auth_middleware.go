// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

// User types carried in the userType claim
const (
	UserTypeAdmin  = "admin"
	UserTypeMember = "member"
)

// RequireUserType checks if the authenticated user has one of the allowed user types
func RequireUserType(allowedTypes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := ExtractUserType(c)

			if userType == "" {
				zap.L().Warn("authentication failed: user type not found", zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user type not found",
				})
			}

			for _, allowedType := range allowedTypes {
				if userType == allowedType {
					return next(c)
				}
			}

			zap.L().Warn("access denied",
				zap.String("path", c.Request().URL.Path),
				zap.String("userType", userType),
				zap.Strings("allowedTypes", allowedTypes))
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your user type",
			})
		}
	}
}
