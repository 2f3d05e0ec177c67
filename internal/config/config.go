// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	Database   DatabaseConfig
	Auth       AuthConfig
	Redis      RedisConfig
	SMTP       SMTPConfig
	Migrations MigrationsConfig

	// CORSAllowedOrigins lists origins allowed by the CORS middleware ("*" allows all)
	CORSAllowedOrigins []string
	// PhoneDefaultRegion is the ISO region used to parse phone numbers without a country code
	PhoneDefaultRegion string
	// ExpenseAutoApproveRule is a CEL expression over amount, category and paymentType
	ExpenseAutoApproveRule string
	IdempotencyTTL         time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// AuthConfig holds token and rate limit settings.
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RateLimit is a ulule/limiter formatted rate, for example "5-M"
	RateLimit string
}

// RedisConfig holds Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	OutboxChannel string
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// SMTPConfig holds outgoing mail settings. An empty Host disables the email relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MigrationsConfig controls golang-migrate.
type MigrationsConfig struct {
	Path string
	Auto bool
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

const devJWTSecret = "dev-secret-change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)

	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("AUTO_MIGRATE", true)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("AUTH_RATE_LIMIT", "5-M")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OUTBOX_CHANNEL", "bizbook.events")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("PHONE_DEFAULT_REGION", "US")
	v.SetDefault("EXPENSE_AUTO_APPROVE_RULE", "amount <= 1000.0")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
}

// Load reads configuration. A .env file in the working directory is loaded
// first when present; real environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      v.GetString("APP_ENV"),
		Port:     v.GetString("SERVER_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MinConns: v.GetInt32("DB_MIN_CONNS"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
			RateLimit:  v.GetString("AUTH_RATE_LIMIT"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			OutboxChannel: v.GetString("OUTBOX_CHANNEL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Migrations: MigrationsConfig{
			Path: v.GetString("MIGRATIONS_PATH"),
			Auto: v.GetBool("AUTO_MIGRATE"),
		},
		CORSAllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PhoneDefaultRegion:     strings.ToUpper(v.GetString("PHONE_DEFAULT_REGION")),
		ExpenseAutoApproveRule: v.GetString("EXPENSE_AUTO_APPROVE_RULE"),
		IdempotencyTTL:         v.GetDuration("IDEMPOTENCY_TTL"),
	}

	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the process cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_TTL must be positive, got %s", c.Auth.AccessTTL))
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
