package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// IMAP server
	IMAPHost     string `env:"IMAP_HOST"` // autodetected from username when empty
	IMAPPort     int    `env:"IMAP_PORT" envDefault:"993"`
	IMAPUsername string `env:"IMAP_USERNAME,required"`
	IMAPPassword string `env:"IMAP_PASSWORD,required"`

	// Disabling verification is an explicit trust downgrade and is
	// logged by the session layer.
	SSLVerify bool `env:"SSL_VERIFY" envDefault:"true"`

	// Timeouts for connection establishment and command round trips
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	IMAPReadTimeout time.Duration `env:"IMAP_READ_TIMEOUT" envDefault:"60s"`

	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.IMAPHost == "" {
		host, err := ResolveIMAPHost(cfg.IMAPUsername)
		if err != nil {
			return nil, fmt.Errorf("IMAP_HOST not set and autodetection failed: %w", err)
		}
		cfg.IMAPHost = host
	}

	if cfg.IMAPPort <= 0 || cfg.IMAPPort > 65535 {
		return nil, fmt.Errorf("invalid IMAP_PORT %d", cfg.IMAPPort)
	}

	return cfg, nil
}
