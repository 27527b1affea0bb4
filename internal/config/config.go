package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config carries all environment-driven settings for the sync service.
type Config struct {
	HTTP struct {
		Addr string `env:"NEXTGEN_HTTP_ADDR" envDefault:":8090"`
	}

	DB struct {
		Path string `env:"NEXTGEN_DB_PATH" envDefault:"nextgen.db"`
	}

	CalCom struct {
		BaseURL string `env:"CALCOM_API_URL" envDefault:"https://api.cal.com/v2"`
		APIKey  string `env:"CALCOM_API_KEY"`
		// WebhookSecret is optional. When empty, inbound signatures are not
		// verified (preserved behavior of the booking source integration;
		// see DESIGN.md before changing this).
		WebhookSecret string `env:"CALCOM_WEBHOOK_SECRET"`
		PageSize      int    `env:"CALCOM_PAGE_SIZE" envDefault:"100"`
	}

	Sync struct {
		Interval  time.Duration `env:"NEXTGEN_SYNC_INTERVAL" envDefault:"1h"`
		DaysBack  int           `env:"NEXTGEN_SYNC_DAYS_BACK" envDefault:"7"`
		DaysAhead int           `env:"NEXTGEN_SYNC_DAYS_AHEAD" envDefault:"365"`
	}

	// AdminEmail is the administrative scheduling address. Bookings where
	// this address appears as an attendee never produce assignments.
	AdminEmail string `env:"NEXTGEN_ADMIN_EMAIL" envDefault:"nextgen.scheduling@gmail.com"`

	Email struct {
		ResendAPIKey string `env:"RESEND_API_KEY"`
		From         string `env:"NEXTGEN_EMAIL_FROM" envDefault:"NextGen <noreply@nextgenministry.ph>"`
		AlertTo      string `env:"NEXTGEN_ALERT_EMAIL"`
	}
}

// New parses the configuration from environment variables.
// PRE: process environment is populated (optionally via a .env file)
// POST: Returns a validated config or an error
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Sync.Interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", cfg.Sync.Interval)
	}
	if cfg.CalCom.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.CalCom.PageSize)
	}
	return cfg, nil
}
