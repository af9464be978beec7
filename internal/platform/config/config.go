// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, mailer) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Aegis API server.
type Config struct {

	// Server settings
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"APP_ENV"     envDefault:"development"`
	AppBaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DBHost     string `env:"DB_HOST"     envDefault:"localhost"`
	DBPort     string `env:"DB_PORT"     envDefault:"5432"`
	DBUser     string `env:"DB_USER"     envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"     envDefault:"aegis"`
	DBSSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./internal/platform/migration/sql"`

	// Key-Value Cache (Redis), backs account-scoped rate-limit counters.
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret signs and verifies all three bearer token kinds (HMAC-SHA-256).
	// Its absence halts startup.
	JWTSecret string `env:"JWT_SECRET,required"`

	// PasswordHashAlgo selects the default KDF for newly-minted credentials.
	PasswordHashAlgo string `env:"PASSWORD_HASH_ALGO" envDefault:"argon2id"`

	// Mailer/SMS bindings — opaque to the core, consumed only by the notify package.
	MailFromAddress string `env:"MAIL_FROM_ADDRESS" envDefault:"no-reply@aegis.app"`
	SMSFromNumber   string `env:"SMS_FROM_NUMBER"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing — in
	// particular JWT_SECRET, per the halt-on-missing-secret requirement.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
// Development mode additionally surfaces opaque verification tokens and URLs
// in HTTP responses that would otherwise only be delivered by Mailer/SMSGateway.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseDSN assembles a libpq-compatible connection string from the
// discrete DB_* fields.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
