package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

var ErrNoDeviceToken = errors.New("member has no FCM token")

const pushChannelID = "ladli_lakshmi_channel"

// PushNotifier delivers a notification to a member's devices
type PushNotifier interface {
	NotifyMember(ctx context.Context, memberID, title, body string, data map[string]string) error
}

// DeviceTokenLookup resolves the FCM registration token of a member
type DeviceTokenLookup interface {
	DeviceToken(ctx context.Context, memberID string) (string, error)
}

// MessageSender is the subset of *messaging.Client used here
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier sends notifications through Firebase Cloud Messaging
type FCMNotifier struct {
	client MessageSender
	tokens DeviceTokenLookup
}

func NewFCMNotifier(client MessageSender, tokens DeviceTokenLookup) *FCMNotifier {
	return &FCMNotifier{client: client, tokens: tokens}
}

func (n *FCMNotifier) NotifyMember(ctx context.Context, memberID, title, body string, data map[string]string) error {
	token, err := n.tokens.DeviceToken(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to find member device: %w", err)
	}
	if token == "" {
		return ErrNoDeviceToken
	}

	payload := map[string]string{
		"memberId":  memberID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for k, v := range data {
		payload[k] = v
	}

	badge := 1
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: pushChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}

	response, err := n.client.Send(ctx, message)
	if err != nil {
		zap.L().Error("Error sending FCM notification", zap.String("memberId", memberID), zap.Error(err))
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	zap.L().Info("FCM notification sent", zap.String("memberId", memberID), zap.String("response", response))
	return nil
}

// NopNotifier is used when Firebase is not configured
type NopNotifier struct{}

func (NopNotifier) NotifyMember(ctx context.Context, memberID, title, body string, data map[string]string) error {
	zap.L().Debug("push notifications disabled, dropping notification",
		zap.String("memberId", memberID), zap.String("title", title))
	return nil
}
