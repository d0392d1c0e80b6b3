// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	jwt.StandardClaims
}

// TokenBlacklist holds tokens invalidated before their expiry
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time)}
}

// Add blacklists a token until expiry
func (b *TokenBlacklist) Add(token string, expiry time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = expiry
}

// Contains reports whether a token was invalidated
func (b *TokenBlacklist) Contains(token string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.tokens[token]
	return exists
}

// Cleanup removes expired tokens from the blacklist
func (b *TokenBlacklist) Cleanup(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for token, expiry := range b.tokens {
		if now.After(expiry) {
			delete(b.tokens, token)
		}
	}
}

// RunCleanup periodically purges the blacklist until stop is closed
func (b *TokenBlacklist) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			b.Cleanup(now)
		}
	}
}

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware(secret string, blacklist *TokenBlacklist) echo.MiddlewareFunc {
	if secret == "" {
		zap.L().Warn("JWT secret is not set, authenticated routes are disabled")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	verify := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		Claims:        &JwtCustomClaims{},
		TokenLookup:   "header:" + echo.HeaderAuthorization + ",query:token",
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			zap.L().Debug("JWT authenticated",
				zap.String("path", c.Request().URL.Path),
				zap.String("userId", claims.UserID),
				zap.String("userType", claims.UserType))

			c.Set("userId", claims.UserID)
			c.Set("userType", claims.UserType)
			c.Set("email", claims.Email)
		},
		ErrorHandler: func(err error) error {
			zap.L().Debug("JWT middleware error", zap.Error(err))
			if strings.Contains(err.Error(), "invalid number of segments") {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid token format")
			}
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			if blacklist != nil && blacklist.Contains(RawToken(c)) {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Token has been invalidated")
			}
			return next(c)
		})
	}
}

// GenerateJWT signs a token for the user that expires after ttl
func GenerateJWT(secret string, ttl time.Duration, userID, email, userType string) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("JWT secret is required")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &JwtCustomClaims{
		UserID:   userID,
		Email:    email,
		UserType: userType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// GetUserFromToken extracts user information from JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return nil
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// RawToken returns the bearer token the request was authenticated with
func RawToken(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return ""
	}
	return token.Raw
}

func ExtractUserID(c echo.Context) (string, error) {
	claims := GetUserFromToken(c)
	if claims == nil {
		return "", errors.New("invalid token")
	}
	if claims.UserID == "" {
		return "", errors.New("invalid user ID in token")
	}
	return claims.UserID, nil
}

// ExtractUserType safely extracts the user type from the context
func ExtractUserType(c echo.Context) string {
	if userType, ok := c.Get("userType").(string); ok && userType != "" {
		return userType
	}

	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.UserType
	}
	return ""
}
