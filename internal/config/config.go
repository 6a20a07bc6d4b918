package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr = ":8080"
	defaultLedgerPath = "./data"
	defaultSMTPHost   = "smtp.gmail.com"
	defaultSMTPPort   = "587"
)

// Config holds infrastructure settings and secrets. Feature settings live in
// the TOML feature config.
type Config struct {
	// Marketing record store: leads and application intake.
	RecordStoreURL string
	RecordStoreKey string
	// CRM record store: calendar credentials, applications, pixel events.
	CRMStoreURL string
	CRMStoreKey string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string
	CalendarEndpoint   string

	InternPasswordHash string
	SessionSecret      string
	CookieInsecure     bool

	ListenAddr string
	LedgerPath string

	SMTP SMTPConfig
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	From          string
	TestEmailOnly string
}

// Enabled reports whether enough settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// CalendarConfigured reports whether the OAuth client for the calendar is set.
func (c *Config) CalendarConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// LoadWithFile loads configuration from an optional .env file and environment variables.
func LoadWithFile(envFile string) (*Config, error) {
	// Attempt to load .env file if provided, but don't fail if it doesn't exist.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	smtpPassword, err := secretFromEnv("SMTP_PASSWORD")
	if err != nil {
		return nil, err
	}
	smtpUsername := os.Getenv("SMTP_USERNAME")

	cfg := &Config{
		CRMStoreURL:        strings.TrimRight(os.Getenv("CRM_SUPABASE_URL"), "/"),
		CRMStoreKey:        os.Getenv("CRM_SUPABASE_SERVICE_ROLE_KEY"),
		RecordStoreURL:     strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		RecordStoreKey:     os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleTokenURL:     os.Getenv("GOOGLE_TOKEN_URL"),
		CalendarEndpoint:   os.Getenv("GOOGLE_CALENDAR_ENDPOINT"),
		InternPasswordHash: os.Getenv("INTERN_PASSWORD_HASH"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		CookieInsecure:     parseBool(os.Getenv("COOKIE_INSECURE")),
		ListenAddr:         getEnv("LISTEN_ADDR", defaultListenAddr),
		LedgerPath:         getEnv("LEDGER_PATH", defaultLedgerPath),
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", defaultSMTPHost),
			Port:          getEnv("SMTP_PORT", defaultSMTPPort),
			Username:      smtpUsername,
			Password:      smtpPassword,
			From:          getEnv("SMTP_FROM", smtpUsername),
			TestEmailOnly: os.Getenv("TEST_EMAIL_ONLY"),
		},
	}

	// The marketing store defaults to the CRM project when only one is used.
	if cfg.RecordStoreURL == "" {
		cfg.RecordStoreURL = cfg.CRMStoreURL
	}
	if cfg.RecordStoreKey == "" {
		cfg.RecordStoreKey = cfg.CRMStoreKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required fields are set.
func (c *Config) Validate() error {
	if c.CRMStoreURL == "" {
		return fmt.Errorf("CRM_SUPABASE_URL is required")
	}
	if c.CRMStoreKey == "" {
		return fmt.Errorf("CRM_SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.RecordStoreURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.RecordStoreKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	return nil
}

// secretFromEnv reads KEY, or the trimmed contents of the file named by
// KEY_FILE (Docker secrets) when that is set.
func secretFromEnv(key string) (string, error) {
	value := os.Getenv(key)
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s_FILE: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseBool converts a string to a boolean, defaulting to false.
func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
