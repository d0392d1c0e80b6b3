package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// MailConfig carries the SMTP transport credentials and OTP mail options.
type MailConfig struct {
	Host              string
	Port              int
	User              string `validate:"required"`
	Pass              string `validate:"required"`
	SenderAddress     string
	SenderDisplayName string
	OTPExpiryMinutes  int `validate:"gte=1"`
}

// From returns the envelope sender, falling back to the SMTP user
func (m MailConfig) From() string {
	if m.SenderAddress != "" {
		return m.SenderAddress
	}
	return m.User
}

// WhishConfig holds the Whish payment gateway credentials
type WhishConfig struct {
	BaseURL    string
	Channel    string
	Secret     string
	WebsiteURL string
	Testing    bool
}

// Configured reports whether all credentials required by Whish are present
func (w WhishConfig) Configured() bool {
	return w.Channel != "" && w.Secret != "" && w.WebsiteURL != ""
}

// FirebaseConfig points at the service account used for push notifications
type FirebaseConfig struct {
	ProjectID         string
	CredentialsFile   string
	CredentialsBase64 string
}

// Enabled reports whether any Firebase credentials were supplied
func (f FirebaseConfig) Enabled() bool {
	return f.CredentialsFile != "" || f.CredentialsBase64 != ""
}

// AppConfig is the full runtime configuration of the backend
type AppConfig struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI string `validate:"required"`
	DBName   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string        `validate:"required"`
	JWTTTL    time.Duration `validate:"gt=0"`

	Mail MailConfig

	AdminEmail        string `validate:"required,email"`
	AdminPasswordHash string `validate:"required"`
	ContactInbox      string

	WalletAPIURL  string `validate:"required,url"`
	WalletTimeout time.Duration

	Whish    WhishConfig
	Firebase FirebaseConfig

	BaseURL            string
	FrontendURL        string
	CORSAllowedOrigins []string

	MatrixMaxDepth int `validate:"gte=1"`
	MatrixCacheTTL time.Duration

	// EnvFileLoaded is false when no .env file was found
	EnvFileLoaded bool
}

// IsDevelopment reports whether the process runs with a development profile
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

const (
	defaultPort             = "8080"
	defaultDBName           = "ladli_lakshmi"
	defaultRedisAddr        = "localhost:6379"
	defaultSMTPHost         = "mail.smtp2go.com"
	defaultSMTPPort         = 2525
	defaultSenderName       = "Ladli Lakshmi"
	defaultOTPExpiryMinutes = 5
	defaultJWTTTL           = 24 * time.Hour
	defaultWalletTimeout    = 30 * time.Second
	defaultMatrixMaxDepth   = 64
	defaultMatrixCacheTTL   = 2 * time.Minute
	defaultFrontendURL      = "https://ladlilakshmi.org"
	defaultBaseURL          = "https://api.ladlilakshmi.org"
	whishSandboxURL         = "https://api.sandbox.whish.money/itel-service/api/"
	whishProductionURL      = "https://whish.money/itel-service/api/"
)

// Load reads the .env file (if any) and the process environment into an AppConfig
func Load() (*AppConfig, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// Credentials a development profile may run without
var developmentOptional = []string{
	"JWTSecret",
	"Mail.User",
	"Mail.Pass",
	"AdminEmail",
	"AdminPasswordHash",
	"WalletAPIURL",
}

// FromEnv builds and validates an AppConfig from environment variables only
func FromEnv() (*AppConfig, error) {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	cfg := &AppConfig{
		Env:      os.Getenv("ENV"),
		Port:     valueOrDefault("PORT", defaultPort),
		LogLevel: valueOrDefault("LOG_LEVEL", "info"),

		MongoURI: mongoURI,
		DBName:   valueOrDefault("DB_NAME", defaultDBName),

		RedisAddr:     valueOrDefault("REDIS_ADDR", defaultRedisAddr),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Mail: MailConfig{
			Host:              valueOrDefault("SMTP_HOST", defaultSMTPHost),
			User:              os.Getenv("SMTP_USER"),
			Pass:              os.Getenv("SMTP_PASS"),
			SenderAddress:     os.Getenv("FROM_EMAIL"),
			SenderDisplayName: valueOrDefault("SENDER_NAME", defaultSenderName),
		},

		AdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		ContactInbox:      os.Getenv("CONTACT_INBOX"),

		WalletAPIURL: strings.TrimRight(os.Getenv("WALLET_API_URL"), "/"),

		Whish: WhishConfig{
			Channel:    os.Getenv("WHISH_CHANNEL"),
			Secret:     os.Getenv("WHISH_SECRET"),
			WebsiteURL: os.Getenv("WHISH_WEBSITE_URL"),
			Testing:    os.Getenv("WHISH_ENV") == "testing",
		},

		Firebase: FirebaseConfig{
			ProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			CredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		},

		BaseURL:            strings.TrimRight(valueOrDefault("BASE_URL", defaultBaseURL), "/"),
		FrontendURL:        strings.TrimRight(valueOrDefault("FRONTEND_URL", defaultFrontendURL), "/"),
		CORSAllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.MongoURI == "" && cfg.IsDevelopment() {
		cfg.MongoURI = "mongodb://localhost:27017"
	}

	cfg.Whish.BaseURL = whishProductionURL
	if cfg.Whish.Testing {
		cfg.Whish.BaseURL = whishSandboxURL
	}

	var err error
	if cfg.RedisDB, err = parseInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Mail.Port, err = parseInt("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.Mail.OTPExpiryMinutes, err = parseInt("OTP_EXPIRY_MINUTES", defaultOTPExpiryMinutes); err != nil {
		return nil, err
	}
	if cfg.MatrixMaxDepth, err = parseInt("MATRIX_MAX_DEPTH", defaultMatrixMaxDepth); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.WalletTimeout, err = parseDuration("WALLET_TIMEOUT", defaultWalletTimeout); err != nil {
		return nil, err
	}
	if cfg.MatrixCacheTTL, err = parseDuration("MATRIX_CACHE_TTL", defaultMatrixCacheTTL); err != nil {
		return nil, err
	}

	validate := validator.New()
	if cfg.IsDevelopment() {
		err = validate.StructExcept(cfg, developmentOptional...)
	} else {
		err = validate.Struct(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
