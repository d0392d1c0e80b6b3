package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/utils"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

const (
	contactInvalidMessage = "Please provide a valid email, name and message"
	contactFailureMessage = "Something went wrong..."
	contactSuccessMessage = "Thank you for contacting us! We will get back to you soon."
	contactAckSubject     = "We received your message"
	contactRecentLimit    = 50
)

// ContactMailer sends the acknowledgement and the inbox copy
type ContactMailer interface {
	Send(to, subject, htmlBody string) (*models.DeliveryReceipt, error)
	SendWithReplyTo(to, replyTo, subject, htmlBody string) (*models.DeliveryReceipt, error)
}

// ContactStore persists submissions
type ContactStore interface {
	Save(ctx context.Context, msg *models.ContactMessage) error
	Recent(ctx context.Context, limit int64) ([]models.ContactMessage, error)
}

// Broadcaster pushes live events to connected dashboards
type Broadcaster interface {
	BroadcastToType(userType string, notification websocket.Notification)
	SendToUser(userID string, notification websocket.Notification)
}

type ContactController struct {
	mailer ContactMailer
	store  ContactStore
	hub    Broadcaster
	inbox  string
}

func NewContactController(mailer ContactMailer, store ContactStore, hub Broadcaster, inbox string) *ContactController {
	return &ContactController{mailer: mailer, store: store, hub: hub, inbox: inbox}
}

// Submit handles POST /api/contact-us. It always answers 200; Success carries the outcome.
func (cc *ContactController) Submit(c echo.Context) error {
	var req models.ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, models.ContactResponse{Success: false, Message: contactInvalidMessage})
	}

	email, err := utils.SanitizeEmail(req.Email)
	name := utils.SanitizeInput(req.FullName)
	message := utils.SanitizeInput(req.Message)
	if err != nil || name == "" || message == "" {
		return c.JSON(http.StatusOK, models.ContactResponse{Success: false, Message: contactInvalidMessage})
	}

	phone, err := utils.SanitizePhone(req.PhoneNo)
	if err != nil {
		zap.L().Debug("ignoring invalid contact phone number", zap.Error(err))
		phone = ""
	}

	submission := &models.ContactMessage{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  name,
		Message:   message,
		PhoneNo:   phone,
		CreatedAt: time.Now(),
	}

	_, err = cc.mailer.Send(email, contactAckSubject, acknowledgementBody(submission))
	submission.Acknowledged = err == nil
	if err != nil {
		zap.L().Error("failed to send contact acknowledgement", zap.String("contactId", submission.ID), zap.Error(err))
	}

	cc.forwardToInbox(submission)
	cc.persist(c.Request().Context(), submission)

	if cc.hub != nil {
		cc.hub.BroadcastToType(middleware.UserTypeAdmin, websocket.Notification{
			Type:    websocket.NotificationTypeContactSubmitted,
			Message: fmt.Sprintf("New contact message from %s", submission.FullName),
			Data:    submission,
		})
	}

	if !submission.Acknowledged {
		return c.JSON(http.StatusOK, models.ContactResponse{Success: false, Message: contactFailureMessage})
	}
	return c.JSON(http.StatusOK, models.ContactResponse{Success: true, Message: contactSuccessMessage})
}

// RecentMessages handles GET /api/admin/contact-messages
func (cc *ContactController) RecentMessages(c echo.Context) error {
	messages, err := cc.store.Recent(c.Request().Context(), contactRecentLimit)
	if err != nil {
		zap.L().Error("failed to list contact messages", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch contact messages",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Contact messages retrieved successfully",
		Data:    messages,
	})
}

func (cc *ContactController) forwardToInbox(m *models.ContactMessage) {
	if cc.inbox == "" {
		return
	}
	subject := fmt.Sprintf("Contact form: %s", m.FullName)
	if _, err := cc.mailer.SendWithReplyTo(cc.inbox, m.Email, subject, inboxBody(m)); err != nil {
		zap.L().Warn("failed to forward contact message", zap.String("contactId", m.ID), zap.Error(err))
	}
}

func (cc *ContactController) persist(ctx context.Context, m *models.ContactMessage) {
	if cc.store == nil {
		return
	}
	// request cancellation must not drop the record
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := cc.store.Save(ctx, m); err != nil {
		zap.L().Warn("failed to store contact message", zap.String("contactId", m.ID), zap.Error(err))
	}
}

// Submission fields are HTML-escaped by the sanitizers before reaching these bodies.
func acknowledgementBody(m *models.ContactMessage) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Hello %s,</h2>
	<p>Thank you for reaching out to Ladli Lakshmi. We have received your message and will reply as soon as possible.</p>
	<blockquote style="border-left: 3px solid #ccc; padding-left: 10px;">%s</blockquote>
	<p>Thank you,<br>The Ladli Lakshmi Team</p>
</body>
</html>`, m.FullName, m.Message)
}

func inboxBody(m *models.ContactMessage) string {
	phone := m.PhoneNo
	if phone == "" {
		phone = "-"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>New contact form submission</h2>
	<p><strong>Name:</strong> %s</p>
	<p><strong>Email:</strong> %s</p>
	<p><strong>Phone:</strong> %s</p>
	<p><strong>Message:</strong></p>
	<p>%s</p>
</body>
</html>`, m.FullName, m.Email, phone, m.Message)
}
