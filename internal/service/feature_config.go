package service

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultCalendarID       = "primary"
	defaultWindowDays       = 7
	defaultMaxWindowDays    = 60
	defaultEmailReminderMin = 60
	defaultPopupReminderMin = 15
	defaultWebhookTimeout   = 10
	defaultRequestsPerMin   = 30
	defaultBurst            = 10
)

// CalendarConfig holds the Google Calendar settings of the owner's calendar.
type CalendarConfig struct {
	CalendarID    string `toml:"calendar_id"`
	EventLocation string `toml:"event_location"`
	OwnerEmail    string `toml:"owner_email"` // Receives booking notifications
}

// BookingConfig controls the availability window and event reminders.
type BookingConfig struct {
	DefaultDays          int `toml:"default_days"`
	MaxDays              int `toml:"max_days"`
	EmailReminderMinutes int `toml:"email_reminder_minutes"`
	PopupReminderMinutes int `toml:"popup_reminder_minutes"`
}

// WebhookConfig points at the workflow automation endpoint.
type WebhookConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the webhook request timeout.
func (w WebhookConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

type ServerConfig struct {
	AllowedOrigin string `toml:"allowed_origin"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	Burst             int `toml:"burst"`
}

// FeatureConfig holds user-facing feature configurations.
// These are non-sensitive settings that customize application behavior
// and integrations. Users can modify these without redeployment.
// Source: TOML configuration file
type FeatureConfig struct {
	Calendar  CalendarConfig  `toml:"calendar"`
	Booking   BookingConfig   `toml:"booking"`
	Webhook   WebhookConfig   `toml:"webhook"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// DefaultFeatureConfig returns the settings used when no file is present.
func DefaultFeatureConfig() *FeatureConfig {
	cfg := &FeatureConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadFeatureConfig loads feature configuration from a TOML file. A missing
// file yields the defaults.
func LoadFeatureConfig(path string) (*FeatureConfig, error) {
	var cfg FeatureConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultFeatureConfig(), nil
		}
		return nil, fmt.Errorf("failed to load feature config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *FeatureConfig) applyDefaults() {
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = defaultCalendarID
	}
	if c.Booking.DefaultDays <= 0 {
		c.Booking.DefaultDays = defaultWindowDays
	}
	if c.Booking.MaxDays <= 0 {
		c.Booking.MaxDays = defaultMaxWindowDays
	}
	if c.Booking.EmailReminderMinutes <= 0 {
		c.Booking.EmailReminderMinutes = defaultEmailReminderMin
	}
	if c.Booking.PopupReminderMinutes <= 0 {
		c.Booking.PopupReminderMinutes = defaultPopupReminderMin
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		c.Webhook.TimeoutSeconds = defaultWebhookTimeout
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = defaultRequestsPerMin
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultBurst
	}
}

// Validate checks settings that have no sensible fallback.
func (c *FeatureConfig) Validate() error {
	if c.Booking.DefaultDays > c.Booking.MaxDays {
		return fmt.Errorf("booking.default_days (%d) exceeds booking.max_days (%d)", c.Booking.DefaultDays, c.Booking.MaxDays)
	}
	return nil
}

// ClampDays bounds a requested availability window to 0..MaxDays, where 0
// means today only. Negative values select DefaultDays.
func (b BookingConfig) ClampDays(days int) int {
	if days < 0 {
		return b.DefaultDays
	}
	if days > b.MaxDays {
		return b.MaxDays
	}
	return days
}
