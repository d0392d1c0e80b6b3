package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityConfig tunes the response security headers
type SecurityConfig struct {
	// AllowedDomains may be reached by fetch and websocket connections
	AllowedDomains []string
	AllowInlineJS  bool
	// HSTS is left off for plain HTTP development servers
	HSTS bool
}

func SecurityHeadersWithConfig(config SecurityConfig) echo.MiddlewareFunc {
	csp := buildCSP(config)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
			if config.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config SecurityConfig) string {
	csp := []string{
		"default-src 'self'",
		"img-src 'self' data:",
		"style-src 'self' 'unsafe-inline'",
		"frame-ancestors 'none'",
	}

	if config.AllowInlineJS {
		csp = append(csp, "script-src 'self' 'unsafe-inline'")
	} else {
		csp = append(csp, "script-src 'self'")
	}

	if len(config.AllowedDomains) > 0 {
		sources := make([]string, 0, 2*len(config.AllowedDomains))
		for _, domain := range config.AllowedDomains {
			sources = append(sources, domain)
			// the admin dashboard opens its websocket on the same hosts
			if strings.HasPrefix(domain, "https://") {
				sources = append(sources, "wss://"+strings.TrimPrefix(domain, "https://"))
			}
		}
		csp = append(csp, "connect-src 'self' "+strings.Join(sources, " "))
	}

	return strings.Join(csp, "; ")
}
