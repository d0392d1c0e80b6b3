package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(e *echo.Echo, h Handlers, jwt echo.MiddlewareFunc) {
	admin := e.Group("/api/admin")

	// Public routes (no auth required)
	admin.POST("/login", h.AdminAuth.Login)
	admin.POST("/verify-otp", h.AdminAuth.VerifyOTP)

	// Protected routes (require admin authentication)
	protected := admin.Group("")
	protected.Use(jwt)
	protected.Use(middleware.RequireUserType(middleware.UserTypeAdmin))

	protected.GET("/team/:memberId/matrix", h.Team.GetMemberMatrix)
	protected.GET("/donations/balance", h.Donation.Balance)
	protected.GET("/contact-messages", h.Contact.RecentMessages)

	// Dashboard feed. Browsers pass the token as ?token= since they cannot set headers on upgrade.
	protected.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return echo.ErrUnauthorized
		}
		return websocket.HandleWebSocket(c, h.Hub, userID, middleware.ExtractUserType(c))
	})
}
