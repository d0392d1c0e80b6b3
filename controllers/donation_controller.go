package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/repositories"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

const defaultDonationCurrency = "USD"

// PaymentGateway is the subset of the Whish client used for donations
type PaymentGateway interface {
	Configured() bool
	GetBalance(ctx context.Context) (float64, error)
	PostPayment(ctx context.Context, req models.WhishRequest) (string, error)
	GetPaymentStatus(ctx context.Context, currency string, externalID int64) (string, string, error)
}

// DonationStore persists donations
type DonationStore interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindByExternalID(ctx context.Context, externalID int64) (*models.Donation, error)
	SetCollectURL(ctx context.Context, externalID int64, collectURL string) error
	UpdateStatus(ctx context.Context, externalID int64, status, payerPhone string) error
}

type DonationController struct {
	gateway     PaymentGateway
	store       DonationStore
	hub         Broadcaster
	baseURL     string
	frontendURL string
	now         func() time.Time
}

func NewDonationController(gateway PaymentGateway, store DonationStore, hub Broadcaster, baseURL, frontendURL string) *DonationController {
	return &DonationController{
		gateway:     gateway,
		store:       store,
		hub:         hub,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// Create starts a Whish payment for the authenticated member
func (dc *DonationController) Create(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if !dc.gateway.Configured() {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Online donations are currently unavailable",
		})
	}

	var req models.DonationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Please enter a valid amount and currency",
		})
	}
	if req.Currency == "" {
		req.Currency = defaultDonationCurrency
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	donation := &models.Donation{
		ID:         uuid.New().String(),
		MemberID:   userID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Invoice:    "Ladli Lakshmi donation " + uuid.New().String(),
		ExternalID: dc.now().UnixNano(),
		Status:     models.DonationPending,
		CreatedAt:  dc.now(),
	}
	if err := dc.store.Create(ctx, donation); err != nil {
		zap.L().Error("failed to save donation", zap.String("userId", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create donation",
		})
	}

	externalID := strconv.FormatInt(donation.ExternalID, 10)
	collectURL, err := dc.gateway.PostPayment(ctx, models.WhishRequest{
		Amount:             &donation.Amount,
		Currency:           donation.Currency,
		Invoice:            donation.Invoice,
		ExternalID:         &donation.ExternalID,
		SuccessCallbackURL: dc.baseURL + "/api/whish/donation/callback/success?externalId=" + externalID,
		FailureCallbackURL: dc.baseURL + "/api/whish/donation/callback/failure?externalId=" + externalID,
		SuccessRedirectURL: dc.frontendURL + "/donation-success?externalId=" + externalID,
		FailureRedirectURL: dc.frontendURL + "/donation-failed?externalId=" + externalID,
	})
	if err != nil {
		zap.L().Error("failed to create Whish payment", zap.Int64("externalId", donation.ExternalID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to initiate payment",
		})
	}

	donation.CollectURL = collectURL
	if err := dc.store.SetCollectURL(ctx, donation.ExternalID, collectURL); err != nil {
		zap.L().Warn("failed to store collect URL", zap.Int64("externalId", donation.ExternalID), zap.Error(err))
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Donation created successfully",
		Data: map[string]interface{}{
			"collectUrl": collectURL,
			"externalId": donation.ExternalID,
			"donation":   donation,
		},
	})
}

// Status refreshes a donation from Whish. Members only see their own.
func (dc *DonationController) Status(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	externalID, err := strconv.ParseInt(c.Param("externalId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid externalId",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	donation, err := dc.store.FindByExternalID(ctx, externalID)
	if errors.Is(err, repositories.ErrDonationNotFound) || (err == nil && donation.MemberID != userID) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Donation not found",
		})
	}
	if err != nil {
		zap.L().Error("failed to load donation", zap.Int64("externalId", externalID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load donation",
		})
	}

	if donation.Status == models.DonationPending {
		if err := dc.refresh(ctx, donation); err != nil {
			zap.L().Error("failed to refresh donation status", zap.Int64("externalId", externalID), zap.Error(err))
			return c.JSON(http.StatusBadGateway, models.Response{
				Status:  http.StatusBadGateway,
				Message: "Failed to verify payment",
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Donation status retrieved successfully",
		Data:    donation,
	})
}

// CallbackSuccess handles the Whish success callback
func (dc *DonationController) CallbackSuccess(c echo.Context) error {
	return dc.callback(c)
}

// CallbackFailure handles the Whish failure callback. The status is still
// read back from Whish.
func (dc *DonationController) CallbackFailure(c echo.Context) error {
	return dc.callback(c)
}

func (dc *DonationController) callback(c echo.Context) error {
	externalIDStr := c.QueryParam("externalId")
	if externalIDStr == "" {
		return c.String(http.StatusBadRequest, "Missing externalId parameter")
	}
	externalID, err := strconv.ParseInt(externalIDStr, 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid externalId")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	donation, err := dc.store.FindByExternalID(ctx, externalID)
	if errors.Is(err, repositories.ErrDonationNotFound) {
		zap.L().Warn("Whish callback for unknown donation", zap.Int64("externalId", externalID))
		return c.String(http.StatusNotFound, "Donation not found")
	}
	if err != nil {
		zap.L().Error("failed to load donation", zap.Int64("externalId", externalID), zap.Error(err))
		return c.String(http.StatusInternalServerError, "Database error")
	}

	if donation.Status != models.DonationPending {
		return c.String(http.StatusOK, "Payment already processed")
	}

	if err := dc.refresh(ctx, donation); err != nil {
		zap.L().Error("failed to verify donation with Whish", zap.Int64("externalId", externalID), zap.Error(err))
		return c.String(http.StatusInternalServerError, "Failed to verify payment")
	}

	zap.L().Info("donation callback processed",
		zap.Int64("externalId", externalID),
		zap.String("status", donation.Status),
	)
	if donation.Status == models.DonationSuccess {
		return c.String(http.StatusOK, "Payment successful")
	}
	return c.String(http.StatusOK, "Payment status recorded")
}

// refresh reads the collect status from Whish and stores it when it changed
func (dc *DonationController) refresh(ctx context.Context, donation *models.Donation) error {
	whishStatus, phone, err := dc.gateway.GetPaymentStatus(ctx, donation.Currency, donation.ExternalID)
	if err != nil {
		return err
	}

	status := donationStatus(whishStatus)
	if status == donation.Status {
		return nil
	}
	if err := dc.store.UpdateStatus(ctx, donation.ExternalID, status, phone); err != nil {
		return err
	}

	donation.Status = status
	donation.PayerPhone = phone
	if status != models.DonationPending {
		completedAt := dc.now()
		donation.CompletedAt = &completedAt
	}

	if dc.hub != nil {
		notification := websocket.Notification{
			Type:    websocket.NotificationTypeDonationUpdated,
			Message: "Donation " + status,
			UserID:  donation.MemberID,
			Data: map[string]interface{}{
				"externalId": donation.ExternalID,
				"amount":     donation.Amount,
				"currency":   donation.Currency,
				"status":     status,
			},
		}
		dc.hub.BroadcastToType(middleware.UserTypeAdmin, notification)
		dc.hub.SendToUser(donation.MemberID, notification)
	}
	return nil
}

func donationStatus(whishStatus string) string {
	switch strings.ToLower(whishStatus) {
	case "success":
		return models.DonationSuccess
	case "failed", "failure":
		return models.DonationFailed
	default:
		return models.DonationPending
	}
}

// Balance returns the Whish collecting account balance
func (dc *DonationController) Balance(c echo.Context) error {
	balance, err := dc.gateway.GetBalance(c.Request().Context())
	if err != nil {
		zap.L().Error("failed to get Whish balance", zap.Error(err))
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to get account balance",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved successfully",
		Data:    map[string]float64{"balance": balance},
	})
}
