package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// DefaultAllowedOrigins are always accepted in addition to configured origins
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://ladlilakshmi.org",
	"https://www.ladlilakshmi.org",
}

// GlobalCORS creates the CORS middleware for the configured origins
func GlobalCORS(extraOrigins []string) echo.MiddlewareFunc {
	origins := append([]string{}, DefaultAllowedOrigins...)
	origins = append(origins, extraOrigins...)

	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength, echo.HeaderContentType},
		MaxAge:           86400,
	})
}
