package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/metrics"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

const (
	// DefaultTransferSuccessMessage is used when the balance service confirms without a message
	DefaultTransferSuccessMessage = "Transfer successful"
	// DefaultTransferFailureMessage is used when the balance service fails without explanation
	DefaultTransferFailureMessage = "Transfer failed. Please try again."
)

var (
	ErrTransferValidation = errors.New("invalid transfer request")
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a positive number", ErrTransferValidation)
	ErrMissingUserID      = fmt.Errorf("%w: user id is required", ErrTransferValidation)
)

// TransferError is a failure reported by (or while reaching) the balance service.
// Message is safe to show to the member.
type TransferError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wallet transfer failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("wallet transfer failed (status %d): %s", e.StatusCode, e.Message)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

type bearerTokenKey struct{}

// WithBearerToken attaches the member's token so it is forwarded to the balance service
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// WalletService moves funds from a member's wallet into their main balance
type WalletService struct {
	baseURL string
	client  *http.Client
}

// NewWalletService creates a client for the balance service rooted at baseURL
func NewWalletService(baseURL string, timeout time.Duration) *WalletService {
	return &WalletService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ValidateTransfer performs the local checks done before contacting the service
func ValidateTransfer(userID string, amount float64) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Transfer asks the balance service to move amount into userID's main wallet
// and returns the service's confirmation message. It is not retried.
func (s *WalletService) Transfer(ctx context.Context, userID string, amount float64) (string, error) {
	if err := ValidateTransfer(userID, amount); err != nil {
		metrics.RecordWalletTransfer("invalid")
		return "", err
	}

	message, err := s.transfer(ctx, userID, amount)
	if err != nil {
		metrics.RecordWalletTransfer("failure")
		return "", err
	}
	metrics.RecordWalletTransfer("success")
	return message, nil
}

func (s *WalletService) transfer(ctx context.Context, userID string, amount float64) (string, error) {
	endpoint := fmt.Sprintf("%s/wallet-transactions/transferToMain/%s", s.baseURL, url.PathEscape(userID))

	payload, err := json.Marshal(models.WalletServiceRequest{Amount: amount})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().Error("wallet service unreachable", zap.String("userId", userID), zap.Error(err))
		return "", &TransferError{Message: DefaultTransferFailureMessage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransferError{StatusCode: resp.StatusCode, Message: DefaultTransferFailureMessage, Err: err}
	}

	var parsed models.WalletServiceResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			zap.L().Warn("wallet service returned a non-JSON body",
				zap.Int("status", resp.StatusCode), zap.ByteString("body", truncate(body, 256)))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := firstNonEmpty(parsed.Error, parsed.Message, DefaultTransferFailureMessage)
		zap.L().Warn("wallet transfer rejected",
			zap.String("userId", userID), zap.Int("status", resp.StatusCode), zap.String("message", message))
		return "", &TransferError{StatusCode: resp.StatusCode, Message: message}
	}

	zap.L().Info("wallet transfer completed", zap.String("userId", userID), zap.Float64("amount", amount))
	return firstNonEmpty(parsed.Message, DefaultTransferSuccessMessage), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
