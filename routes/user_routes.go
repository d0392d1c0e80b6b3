package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

// RegisterUserRoutes sets up all member protected routes
func RegisterUserRoutes(e *echo.Echo, h Handlers, jwt echo.MiddlewareFunc) {
	r := e.Group("/api")
	r.Use(jwt)

	// Team matrix routes
	r.GET("/team/matrix", h.Team.GetMyMatrix)
	r.GET("/team/matrix/count", h.Team.GetMyDescendantCount)
	r.GET("/team/referral-qrcode", h.Team.GetReferralQRCode)

	// Wallet routes
	r.POST("/wallet/transfer", h.Wallet.Transfer)

	// Donation routes
	r.POST("/donations", h.Donation.Create)
	r.GET("/donations/:externalId/status", h.Donation.Status)

	// Live wallet and donation updates for the member app
	r.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return echo.ErrUnauthorized
		}
		return websocket.HandleWebSocket(c, h.Hub, userID, middleware.ExtractUserType(c))
	})
}
