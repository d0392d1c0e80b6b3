package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/services"
)

// OTPIssuer issues and checks one-time login codes
type OTPIssuer interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	Expiry() time.Duration
}

// AdminCredentials identifies the single administrator account
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type AdminAuthController struct {
	otp       OTPIssuer
	admin     AdminCredentials
	jwtSecret string
	jwtTTL    time.Duration
	blacklist *middleware.TokenBlacklist
}

func NewAdminAuthController(otp OTPIssuer, admin AdminCredentials, jwtSecret string, jwtTTL time.Duration, blacklist *middleware.TokenBlacklist) *AdminAuthController {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return &AdminAuthController{
		otp:       otp,
		admin:     admin,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		blacklist: blacklist,
	}
}

// Login checks the admin password and emails an OTP
func (ac *AdminAuthController) Login(c echo.Context) error {
	var req models.AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	// always run bcrypt so that timing does not reveal the admin address
	passwordErr := bcrypt.CompareHashAndPassword([]byte(ac.admin.PasswordHash), []byte(req.Password))
	if email != ac.admin.Email || passwordErr != nil {
		zap.L().Warn("admin login rejected", zap.String("ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if err := ac.otp.Issue(c.Request().Context(), email); err != nil {
		if errors.Is(err, services.ErrOTPDelivery) {
			zap.L().Error("admin OTP delivery failed", zap.Error(err))
			return c.JSON(http.StatusBadGateway, models.Response{
				Status:  http.StatusBadGateway,
				Message: "Failed to send OTP email",
			})
		}
		zap.L().Error("failed to issue admin OTP", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate OTP",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OTP sent to your email",
		Data: map[string]interface{}{
			"expiresIn": int64(ac.otp.Expiry().Seconds()),
		},
	})
}

// VerifyOTP completes the login and returns an admin token
func (ac *AdminAuthController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A valid email and 6 digit code are required",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != ac.admin.Email {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid OTP",
		})
	}

	if err := ac.otp.Verify(c.Request().Context(), email, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrTooManyAttempts):
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many attempts. Please request a new code later",
			})
		case errors.Is(err, services.ErrOTPExpired):
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "OTP has expired",
			})
		case errors.Is(err, services.ErrOTPInvalid):
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid OTP",
			})
		default:
			zap.L().Error("failed to verify admin OTP", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to verify OTP",
			})
		}
	}

	token, expiresAt, err := middleware.GenerateJWT(ac.jwtSecret, ac.jwtTTL, middleware.UserTypeAdmin, email, middleware.UserTypeAdmin)
	if err != nil {
		zap.L().Error("failed to sign admin token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	zap.L().Info("admin logged in", zap.String("ip", c.RealIP()))
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.AuthTokens{
			Token:     token,
			ExpiresIn: int64(time.Until(expiresAt).Seconds()),
			UserType:  middleware.UserTypeAdmin,
		},
	})
}

// Logout invalidates the presented token
func (ac *AdminAuthController) Logout(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	if ac.blacklist != nil {
		ac.blacklist.Add(middleware.RawToken(c), time.Unix(claims.ExpiresAt, 0))
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}
