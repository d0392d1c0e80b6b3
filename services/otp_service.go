package services

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/utils"
)

const (
	otpLength        = 6
	defaultOTPExpiry = 5 * time.Minute
	maxOTPAttempts   = 5
	otpAttemptWindow = time.Hour
	otpEmailSubject  = "Your Ladli Lakshmi admin login code"
)

var (
	ErrOTPDelivery     = errors.New("failed to deliver otp email")
	ErrOTPExpired      = errors.New("otp has expired or was never requested")
	ErrOTPInvalid      = errors.New("invalid otp")
	ErrTooManyAttempts = errors.New("too many otp attempts")
)

// Mailer is the mail dispatch collaborator
type Mailer interface {
	Send(to, subject, htmlBody string) (*models.DeliveryReceipt, error)
}

var otpEmailTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Admin Login Verification</h2>
	<p>Use the following code to finish signing in to the Ladli Lakshmi admin panel:</p>
	<h3 style="background-color: #f0f0f0; padding: 10px; font-size: 24px; letter-spacing: 5px; text-align: center;">{{.Code}}</h3>
	<p>This code will expire in {{.ExpiryMinutes}} minutes.</p>
	<p>If you did not try to sign in, please ignore this email and change your password.</p>
	<p>Thank you,<br>The Ladli Lakshmi Team</p>
</body>
</html>`))

// OTPService issues, emails and verifies admin login codes
type OTPService struct {
	mailer   Mailer
	store    OTPStore
	expiry   time.Duration
	generate func() (string, error)
}

// NewOTPService creates an OTP service; expiryMinutes <= 0 selects the 5 minute default
func NewOTPService(mailer Mailer, store OTPStore, expiryMinutes int) *OTPService {
	expiry := defaultOTPExpiry
	if expiryMinutes > 0 {
		expiry = time.Duration(expiryMinutes) * time.Minute
	}
	return &OTPService{
		mailer: mailer,
		store:  store,
		expiry: expiry,
		generate: func() (string, error) {
			return utils.GenerateNumericOTP(otpLength)
		},
	}
}

// Expiry is how long an issued code stays valid
func (s *OTPService) Expiry() time.Duration {
	return s.expiry
}

// SendOTPEmail renders the OTP template and mails it. Delivery failures
// satisfy errors.Is(err, ErrOTPDelivery).
func (s *OTPService) SendOTPEmail(email, code string) error {
	var body bytes.Buffer
	err := otpEmailTemplate.Execute(&body, struct {
		Code          string
		ExpiryMinutes int
	}{Code: code, ExpiryMinutes: int(s.expiry / time.Minute)})
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	if _, err := s.mailer.Send(email, otpEmailSubject, body.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// Issue generates a new code for email, stores it and mails it. A code that
// could not be delivered is discarded.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	key := otpKey(email)

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.store.Save(ctx, key, code, s.expiry); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.SendOTPEmail(email, code); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			zap.L().Warn("failed to discard undelivered otp", zap.Error(delErr))
		}
		return err
	}

	zap.L().Info("otp issued", zap.String("email", maskEmail(email)), zap.Duration("expiry", s.expiry))
	return nil
}

// Verify checks code against the pending one for email and consumes it on success
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	key := otpKey(email)

	attempts, err := s.store.CountAttempt(ctx, key, otpAttemptWindow)
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts > maxOTPAttempts {
		return ErrTooManyAttempts
	}

	expected, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrOTPNotFound) {
		return ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(code))) != 1 {
		return ErrOTPInvalid
	}

	if err := s.store.Delete(ctx, key); err != nil {
		zap.L().Warn("failed to consume otp", zap.Error(err))
	}
	return nil
}

func otpKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
