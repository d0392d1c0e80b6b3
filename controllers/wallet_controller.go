package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/services"
	"github.com/HSouheill/ladli_lakshmi_backend/utils"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

const invalidAmountMessage = "Please enter a valid amount"

// WalletTransferrer moves wallet funds into the main balance
type WalletTransferrer interface {
	Transfer(ctx context.Context, userID string, amount float64) (string, error)
}

type WalletController struct {
	wallet WalletTransferrer
	push   services.PushNotifier
	hub    Broadcaster
}

func NewWalletController(wallet WalletTransferrer, push services.PushNotifier, hub Broadcaster) *WalletController {
	if push == nil {
		push = services.NopNotifier{}
	}
	return &WalletController{wallet: wallet, push: push, hub: hub}
}

// Transfer handles POST /api/wallet/transfer
func (wc *WalletController) Transfer(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.WalletTransferResponse{Message: "Authentication failed"})
	}

	var req models.WalletTransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.WalletTransferResponse{Message: invalidAmountMessage})
	}

	amount, err := utils.ParseAmount(req.Amount.String())
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.WalletTransferResponse{Message: invalidAmountMessage})
	}

	ctx := services.WithBearerToken(c.Request().Context(), middleware.RawToken(c))
	message, err := wc.wallet.Transfer(ctx, userID, amount)
	if err != nil {
		var transferErr *services.TransferError
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, models.WalletTransferResponse{Message: invalidAmountMessage})
		case errors.Is(err, services.ErrTransferValidation):
			return c.JSON(http.StatusBadRequest, models.WalletTransferResponse{Message: "Please sign in again"})
		case errors.As(err, &transferErr):
			return c.JSON(http.StatusBadGateway, models.WalletTransferResponse{Message: transferErr.Message})
		default:
			zap.L().Error("wallet transfer failed", zap.String("userId", userID), zap.Error(err))
			return c.JSON(http.StatusBadGateway, models.WalletTransferResponse{Message: services.DefaultTransferFailureMessage})
		}
	}

	wc.announce(userID, amount, message)

	return c.JSON(http.StatusOK, models.WalletTransferResponse{
		Success:     true,
		Message:     message,
		ClearAmount: true,
	})
}

// announce tells the member and the admins about a completed transfer
func (wc *WalletController) announce(userID string, amount float64, message string) {
	if wc.hub != nil {
		notification := websocket.Notification{
			Type:    websocket.NotificationTypeWalletTransfer,
			Message: message,
			UserID:  userID,
			Data:    map[string]interface{}{"amount": amount},
		}
		wc.hub.BroadcastToType(middleware.UserTypeAdmin, notification)
		wc.hub.SendToUser(userID, notification)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := wc.push.NotifyMember(ctx, userID, "Wallet transfer", message, map[string]string{
			"type":   websocket.NotificationTypeWalletTransfer,
			"amount": fmt.Sprintf("%.2f", amount),
		})
		if err != nil && !errors.Is(err, services.ErrNoDeviceToken) {
			zap.L().Warn("failed to push wallet notification", zap.String("userId", userID), zap.Error(err))
		}
	}()
}
