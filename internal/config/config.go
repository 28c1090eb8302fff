// Package config loads engine configuration from the environment and the
// permission-link file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds process-level configuration, populated from environment
// variables.
type Config struct {
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"koishi.db"`

	// NATSURL enables the NATS event bridge when non-empty.
	NATSURL string `env:"NATS_URL"`

	// JWTSecret signs API bearer tokens. Auth is disabled when empty.
	JWTSecret string `env:"JWT_SECRET"`

	// AdminPasswordHash is the bcrypt hash the login endpoint verifies
	// against. Login is disabled when empty.
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// LocalePath points to an optional YAML message catalog merged over
	// the built-in messages.
	LocalePath string `env:"LOCALE_PATH"`

	// PermissionsPath points to an optional YAML file of permission links
	// applied to the resolver at startup.
	PermissionsPath string `env:"PERMISSIONS_PATH"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
