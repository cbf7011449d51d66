package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default lifetimes
const (
	DefaultSessionDuration           = 24 * time.Hour
	DefaultAccessTokenDuration       = time.Hour
	DefaultRefreshTokenDuration      = 30 * 24 * time.Hour
	DefaultAuthorizationCodeDuration = 10 * time.Minute
	DefaultDeviceCodeDuration        = 30 * time.Minute
	DefaultDevicePollInterval        = 5 * time.Second
)

// Config holds the application configuration
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Resource owner session
	SessionSecret   string
	SessionDuration time.Duration

	// Set the Secure flag on the session cookie
	SessionCookieSecure bool

	// Token lifetimes. A zero AccessTokenDuration issues non-expiring tokens.
	AccessTokenDuration       time.Duration
	RefreshTokenDuration      time.Duration
	AuthorizationCodeDuration time.Duration
	DeviceCodeDuration        time.Duration
	DevicePollInterval        time.Duration

	// URIs advertised to clients
	VerificationURI       string
	RegistrationClientURI string

	// CORS on the token and association endpoints
	CORSEnabled        bool
	CORSAllowedOrigins []string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Cron spec for the expired artifact purge
	CleanupSchedule string

	// Server configuration
	ServerPort int
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		DBPort: 5432,

		SessionDuration: DefaultSessionDuration,

		AccessTokenDuration:       DefaultAccessTokenDuration,
		RefreshTokenDuration:      DefaultRefreshTokenDuration,
		AuthorizationCodeDuration: DefaultAuthorizationCodeDuration,
		DeviceCodeDuration:        DefaultDeviceCodeDuration,
		DevicePollInterval:        DefaultDevicePollInterval,

		VerificationURI:       "http://localhost:8080/verify",
		RegistrationClientURI: "http://localhost:8080/register",

		RateLimitRPS:   100,
		RateLimitBurst: 200,

		CleanupSchedule: "@every 10m",

		ServerPort: 8080,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	cfg := NewConfig()

	var err error
	if cfg.DBPort, err = envInt("DB_PORT", cfg.DBPort); err != nil {
		return nil, err
	}
	if cfg.ServerPort, err = envInt("PORT", cfg.ServerPort); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.CORSEnabled, err = envBool("CORS_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.SessionCookieSecure, err = envBool("SESSION_COOKIE_SECURE", false); err != nil {
		return nil, err
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SESSION_DURATION", &cfg.SessionDuration},
		{"ACCESS_TOKEN_DURATION", &cfg.AccessTokenDuration},
		{"REFRESH_TOKEN_DURATION", &cfg.RefreshTokenDuration},
		{"AUTHORIZATION_CODE_DURATION", &cfg.AuthorizationCodeDuration},
		{"DEVICE_CODE_DURATION", &cfg.DeviceCodeDuration},
		{"DEVICE_POLL_INTERVAL", &cfg.DevicePollInterval},
	}
	for _, d := range durations {
		if *d.target, err = envDuration(d.key, *d.target); err != nil {
			return nil, err
		}
	}

	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBUser = getEnv("DB_USER", "owner")
	cfg.DBPassword = getEnv("DB_PASSWORD", "ownerTest")
	cfg.DBName = getEnv("DB_NAME", "cpa")
	cfg.SessionSecret = getEnv("SESSION_SECRET", "")
	cfg.VerificationURI = getEnv("VERIFICATION_URI", cfg.VerificationURI)
	cfg.RegistrationClientURI = getEnv("REGISTRATION_CLIENT_URI", cfg.RegistrationClientURI)
	cfg.CleanupSchedule = getEnv("CLEANUP_SCHEDULE", cfg.CleanupSchedule)
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", ""))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that cannot be expressed through defaults
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.AccessTokenDuration < 0 {
		return fmt.Errorf("ACCESS_TOKEN_DURATION must not be negative")
	}
	if c.AuthorizationCodeDuration <= 0 || c.DeviceCodeDuration <= 0 {
		return fmt.Errorf("authorization and device code durations must be positive")
	}
	if c.DevicePollInterval < time.Second {
		return fmt.Errorf("DEVICE_POLL_INTERVAL must be at least one second")
	}
	if c.VerificationURI == "" {
		return fmt.Errorf("VERIFICATION_URI is required")
	}
	return nil
}

// DSN returns the pgx connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// MigrationURL returns the database URL understood by golang-migrate
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
