package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/config"
	"github.com/HSouheill/ladli_lakshmi_backend/controllers"
	"github.com/HSouheill/ladli_lakshmi_backend/metrics"
	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/repositories"
	"github.com/HSouheill/ladli_lakshmi_backend/routes"
	"github.com/HSouheill/ladli_lakshmi_backend/services"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.EnvFileLoaded {
		logger.Warn(".env file not found, using process environment")
	}

	// Connect to database
	client, db, err := config.ConnectDB(cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	// Connect to Redis; nil means in-process fallbacks
	rdb := config.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	var otpStore services.OTPStore = services.NewMemoryOTPStore()
	var matrixCache services.MatrixCache = repositories.NewMemoryMatrixCache(cfg.MatrixCacheTTL)
	if rdb != nil {
		defer rdb.Close()
		otpStore = services.NewRedisOTPStore(rdb)
		matrixCache = repositories.NewRedisMatrixCache(rdb, cfg.MatrixCacheTTL)
	}

	// Repositories
	teamRepo := repositories.NewTeamRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	donationRepo := repositories.NewDonationRepository(db)

	// Services
	mailService := services.NewMailService(cfg.Mail)
	otpService := services.NewOTPService(mailService, otpStore, cfg.Mail.OTPExpiryMinutes)
	teamService := services.NewTeamService(teamRepo, matrixCache, cfg.MatrixMaxDepth)
	walletService := services.NewWalletService(cfg.WalletAPIURL, cfg.WalletTimeout)
	whishService := services.NewWhishService(cfg.Whish)

	var pushNotifier services.PushNotifier = services.NopNotifier{}
	app, err := config.InitFirebase(context.Background(), cfg.Firebase)
	if err != nil {
		logger.Error("firebase initialization failed, push notifications disabled", zap.Error(err))
	} else if app != nil {
		messagingClient, err := app.Messaging(context.Background())
		if err != nil {
			logger.Error("failed to create FCM client, push notifications disabled", zap.Error(err))
		} else {
			pushNotifier = services.NewFCMNotifier(messagingClient, teamRepo)
		}
	}

	// Background workers
	stop := make(chan struct{})
	defer close(stop)

	wsHub := websocket.NewHub()
	go wsHub.Run(stop)

	blacklist := middleware.NewTokenBlacklist()
	go blacklist.RunCleanup(10*time.Minute, stop)

	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.RunCleanup(time.Minute, stop)

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.GlobalCORS(cfg.CORSAllowedOrigins))
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{cfg.FrontendURL, cfg.BaseURL},
		AllowInlineJS:  cfg.IsDevelopment(),
		HSTS:           !cfg.IsDevelopment(),
	}))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.RequireJSON(routes.ContactUsPath))
	if !cfg.IsDevelopment() {
		e.Use(httpsRedirect())
	}

	routes.SetupRoutes(e, routes.Handlers{
		AdminAuth: controllers.NewAdminAuthController(otpService, controllers.AdminCredentials{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
		}, cfg.JWTSecret, cfg.JWTTTL, blacklist),
		Contact:  controllers.NewContactController(mailService, contactRepo, wsHub, cfg.ContactInbox),
		Team:     controllers.NewTeamController(teamService, cfg.FrontendURL),
		Wallet:   controllers.NewWalletController(walletService, pushNotifier, wsHub),
		Donation: controllers.NewDonationController(whishService, donationRepo, wsHub, cfg.BaseURL, cfg.FrontendURL),
		Hub:      wsHub,
	}, cfg.JWTSecret, blacklist)

	// Start server
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
