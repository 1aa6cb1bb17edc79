// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for the admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings shared by the geo cache
// and the asynq scheduler.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// GeoCacheConfig provides settings for the zone resolution read cache.
type GeoCacheConfig interface {
	RedisConfig
	GetGeoCacheTTL() time.Duration
}

// PaymentConfig provides settings for the external payment processor client.
type PaymentConfig interface {
	GetPaymentAPIURL() string
	GetPaymentAPIKey() string
	GetPaymentTimeout() time.Duration
	IsPaymentEnabled() bool
}

// PricingConfig provides the location of the per-country lead pricing file.
type PricingConfig interface {
	GetPricingFile() string
}

// SinkConfig provides settings for the outbound webhook notification sink.
type SinkConfig interface {
	GetWebhookSinkURL() string
	GetWebhookSinkTimeout() time.Duration
	IsWebhookSinkEnabled() bool
}

// EmailConfig provides settings for provider email notifications (SMTP).
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// LinkConfig provides the public base URL used when building links that
// leave the system (offer respond links in provider emails).
type LinkConfig interface {
	GetPublicBaseURL() string
}

// PhoneConfig provides the default region for phone normalization.
type PhoneConfig interface {
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	GeoCacheTTL        time.Duration
	PaymentAPIURL      string
	PaymentAPIKey      string
	PaymentTimeout     time.Duration
	PricingFile        string
	WebhookSinkURL     string
	WebhookSinkTimeout time.Duration
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
	PublicBaseURL      string
	DefaultPhoneRegion string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// GeoCacheConfig implementation
func (c *Config) GetGeoCacheTTL() time.Duration { return c.GeoCacheTTL }

// PaymentConfig implementation
func (c *Config) GetPaymentAPIURL() string         { return c.PaymentAPIURL }
func (c *Config) GetPaymentAPIKey() string         { return c.PaymentAPIKey }
func (c *Config) GetPaymentTimeout() time.Duration { return c.PaymentTimeout }
func (c *Config) IsPaymentEnabled() bool           { return c.PaymentAPIURL != "" }

// PricingConfig implementation
func (c *Config) GetPricingFile() string { return c.PricingFile }

// SinkConfig implementation
func (c *Config) GetWebhookSinkURL() string            { return c.WebhookSinkURL }
func (c *Config) GetWebhookSinkTimeout() time.Duration { return c.WebhookSinkTimeout }
func (c *Config) IsWebhookSinkEnabled() bool           { return c.WebhookSinkURL != "" }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// LinkConfig implementation
func (c *Config) GetPublicBaseURL() string { return c.PublicBaseURL }

// PhoneConfig implementation
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from the environment, optionally seeded by a .env
// file in the working directory.
func Load() (*Config, error) {
	// Best-effort: a missing .env file is fine in production.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTAccessSecret:    os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowAll:       getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:        getEnvList("CORS_ORIGINS"),
		CORSAllowCreds:     getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisTLSInsecure:   getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   getEnvInt("ASYNQ_CONCURRENCY", 10),
		GeoCacheTTL:        getEnvDuration("GEO_CACHE_TTL", 15*time.Minute),
		PaymentAPIURL:      os.Getenv("PAYMENT_API_URL"),
		PaymentAPIKey:      os.Getenv("PAYMENT_API_KEY"),
		PaymentTimeout:     getEnvDuration("PAYMENT_TIMEOUT", 15*time.Second),
		PricingFile:        getEnv("PRICING_FILE", "pricing.yaml"),
		WebhookSinkURL:     os.Getenv("WEBHOOK_SINK_URL"),
		WebhookSinkTimeout: getEnvDuration("WEBHOOK_SINK_TIMEOUT", 10*time.Second),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Lead Marketplace"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", "noreply@localhost"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "NO"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
