package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/HSouheill/ladli_lakshmi_backend/config"
	"github.com/HSouheill/ladli_lakshmi_backend/metrics"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

// MailService delivers HTML emails over SMTP
type MailService struct {
	cfg  config.MailConfig
	send func(m ...*gomail.Message) error
	now  func() time.Time
}

// NewMailService creates a mail service that dials the configured SMTP
// server for every message
func NewMailService(cfg config.MailConfig) *MailService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	zap.L().Info("mail service configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("user", cfg.User))
	return &MailService{cfg: cfg, send: d.DialAndSend, now: time.Now}
}

// NewMailServiceWithSender creates a mail service on top of an existing
// gomail sender (a pooled connection or a test double)
func NewMailServiceWithSender(cfg config.MailConfig, s gomail.Sender) *MailService {
	return &MailService{
		cfg: cfg,
		send: func(m ...*gomail.Message) error {
			return gomail.Send(s, m...)
		},
		now: time.Now,
	}
}

// Send delivers one HTML email and returns a receipt on success
func (s *MailService) Send(to, subject, htmlBody string) (*models.DeliveryReceipt, error) {
	return s.deliver("email", to, subject, htmlBody, "")
}

// SendWithReplyTo is Send with a Reply-To header
func (s *MailService) SendWithReplyTo(to, replyTo, subject, htmlBody string) (*models.DeliveryReceipt, error) {
	return s.deliver("forward", to, subject, htmlBody, replyTo)
}

func (s *MailService) deliver(kind, to, subject, htmlBody, replyTo string) (*models.DeliveryReceipt, error) {
	to = strings.TrimSpace(to)
	if to == "" || !strings.Contains(to, "@") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(s.cfg.From()))

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From(), s.cfg.SenderDisplayName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	if replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}
	m.SetBody("text/html", htmlBody)

	err := s.send(m)
	metrics.RecordMailDispatch(kind, err)
	if err != nil {
		zap.L().Error("failed to send email", zap.String("to", maskEmail(to)), zap.Error(err))
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	return &models.DeliveryReceipt{
		MessageID: messageID,
		Recipient: to,
		SentAt:    s.now(),
	}, nil
}

func senderDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}

// maskEmail partially masks an email address for logs
func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return email
	}

	name, domain := parts[0], parts[1]
	if len(name) <= 2 {
		return name[:1] + "***@" + domain
	}
	return name[:2] + strings.Repeat("*", len(name)-2) + "@" + domain
}
