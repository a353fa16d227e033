// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
//
// When DATABASE_DSN is set the server stores accounts and records in
// PostgreSQL; otherwise it falls back to the embedded bbolt file at
// BOLT_PATH (local mode).
type Config struct {
	Address       string        `env:"ADDRESS" envDefault:":8080"`
	LogLevel      int           `env:"LOG_LEVEL" envDefault:"0"`
	DatabaseDSN   string        `env:"DATABASE_DSN"`
	BoltPath      string        `env:"BOLT_PATH" envDefault:"notevault.db"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"devsecret"`
	TokenValidity time.Duration `env:"TOKEN_VALIDITY" envDefault:"1h"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
