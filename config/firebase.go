package config

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK. A nil app and nil error
// mean push notifications are disabled.
func InitFirebase(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	if !cfg.Enabled() {
		zap.L().Info("firebase credentials not configured, push notifications disabled")
		return nil, nil
	}

	var opt option.ClientOption
	if cfg.CredentialsBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 firebase credentials: %w", err)
		}
		zap.L().Info("using firebase credentials from base64 environment variable")
		opt = option.WithCredentialsJSON(decoded)
	} else {
		zap.L().Info("using firebase credentials file", zap.String("path", cfg.CredentialsFile))
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
