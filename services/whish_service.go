package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/config"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

var ErrWhishNotConfigured = errors.New("missing Whish credentials: set WHISH_CHANNEL, WHISH_SECRET and WHISH_WEBSITE_URL")

// WhishService handles interactions with the Whish payment API
type WhishService struct {
	cfg    config.WhishConfig
	client *http.Client
}

// NewWhishService creates a new Whish service instance
func NewWhishService(cfg config.WhishConfig) *WhishService {
	if !cfg.Configured() {
		zap.L().Warn("Whish credentials not fully configured, donations are disabled",
			zap.Bool("channel", cfg.Channel != ""),
			zap.Bool("secret", cfg.Secret != ""),
			zap.Bool("websiteUrl", cfg.WebsiteURL != ""))
	} else {
		zap.L().Info("Whish service configured",
			zap.Bool("testing", cfg.Testing),
			zap.String("baseUrl", cfg.BaseURL),
			zap.String("channel", cfg.Channel),
			zap.String("websiteUrl", cfg.WebsiteURL))
	}

	return &WhishService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the gateway can be called
func (s *WhishService) Configured() bool {
	return s.cfg.Configured()
}

// makeRequest performs an HTTP request to the Whish API
func (s *WhishService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*models.WhishResponse, error) {
	if !s.cfg.Configured() {
		return nil, ErrWhishNotConfigured
	}

	url := s.cfg.BaseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("channel", s.cfg.Channel)
	req.Header.Set("secret", s.cfg.Secret)
	req.Header.Set("websiteurl", s.cfg.WebsiteURL)

	zap.L().Debug("Whish API request", zap.String("method", method), zap.String("url", url))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	zap.L().Debug("Whish API response", zap.ByteString("body", respBody))

	var whishResp models.WhishResponse
	if err := json.Unmarshal(respBody, &whishResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !whishResp.Status {
		code := "unknown"
		if whishResp.Code != nil {
			code = fmt.Sprintf("%v", whishResp.Code)
		}

		errorMsg := fmt.Sprintf("whish API error: %s", code)
		if dialogMap, ok := whishResp.Dialog.(map[string]interface{}); ok {
			if msg, ok := dialogMap["message"].(string); ok {
				errorMsg = fmt.Sprintf("whish API error: %s - %s", code, msg)
			}
		}

		zap.L().Error("Whish API error", zap.String("code", code), zap.Any("dialog", whishResp.Dialog))
		return &whishResp, errors.New(errorMsg)
	}

	return &whishResp, nil
}

// GetBalance retrieves the real balance of the collecting account
func (s *WhishService) GetBalance(ctx context.Context) (float64, error) {
	resp, err := s.makeRequest(ctx, http.MethodGet, "payment/account/balance", nil)
	if err != nil {
		return 0, err
	}

	if balanceDetails, ok := resp.Data["balanceDetails"].(map[string]interface{}); ok {
		if balance, ok := balanceDetails["balance"].(float64); ok {
			return balance, nil
		}
	}
	return 0, errors.New("failed to parse balance from response")
}

// PostPayment creates a payment and returns the collect URL
func (s *WhishService) PostPayment(ctx context.Context, req models.WhishRequest) (string, error) {
	resp, err := s.makeRequest(ctx, http.MethodPost, "payment/whish", req)
	if err != nil {
		return "", err
	}

	if collectURL, ok := resp.Data["collectUrl"].(string); ok {
		return collectURL, nil
	}
	return "", errors.New("failed to parse collect URL from response")
}

// GetPaymentStatus returns the collect status and payer phone of a payment
func (s *WhishService) GetPaymentStatus(ctx context.Context, currency string, externalID int64) (string, string, error) {
	payload := models.WhishRequest{
		Currency:   currency,
		ExternalID: &externalID,
	}

	resp, err := s.makeRequest(ctx, http.MethodPost, "payment/collect/status", payload)
	if err != nil {
		return "", "", err
	}

	status, _ := resp.Data["collectStatus"].(string)
	phoneNumber, _ := resp.Data["payerPhoneNumber"].(string)
	return status, phoneNumber, nil
}
