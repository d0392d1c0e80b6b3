package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/ladli_lakshmi_backend/controllers"
	"github.com/HSouheill/ladli_lakshmi_backend/metrics"
	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

// ContactUsPath answers 200 for any body, so it is exempt from the JSON guard
const ContactUsPath = "/api/contact-us"

// Handlers bundles every controller the API exposes
type Handlers struct {
	AdminAuth *controllers.AdminAuthController
	Contact   *controllers.ContactController
	Team      *controllers.TeamController
	Wallet    *controllers.WalletController
	Donation  *controllers.DonationController
	Hub       *websocket.Hub
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Handlers, jwtSecret string, blacklist *middleware.TokenBlacklist) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Ladli Lakshmi Backend is running",
			"version": "1.0",
		})
	})
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	jwt := middleware.JWTMiddleware(jwtSecret, blacklist)

	// Public routes
	e.POST(ContactUsPath, h.Contact.Submit)
	e.GET("/api/whish/donation/callback/success", h.Donation.CallbackSuccess)
	e.GET("/api/whish/donation/callback/failure", h.Donation.CallbackFailure)

	RegisterAuthRoutes(e, h, jwt)
	RegisterUserRoutes(e, h, jwt)
	RegisterAdminRoutes(e, h, jwt)
}
