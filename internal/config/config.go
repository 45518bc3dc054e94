// Package config defines the global configuration for the notification
// service. Configuration is loaded once at process start and is immutable
// thereafter, following 12-Factor principles: all values come from the
// environment (optionally seeded from a .env file in local development).
//
// A missing required value or an invalid format fails startup immediately.
package config

import (
	"time"

	"bullhorn/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for configuration values that must never appear in logs.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"bullhorn"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain configurations
	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Directory DirectoryConfig
	Security  SecurityConfig
	Feature   FeatureConfig

	// Build metadata (injected via ldflags, not env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Queue consumed by the delivery orchestrator.
	PrepareToSendQueueURL string `envconfig:"SQS_PREPARE_TO_SEND" validate:"required,url"`

	// CloudWatch namespace for delivery outcome metrics. Empty disables
	// metric emission (local development).
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:""`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// DirectoryConfig holds settings for the group membership service client.
type DirectoryConfig struct {
	BaseURL string        `envconfig:"DIRECTORY_BASE_URL" validate:"required,url"`
	Timeout time.Duration `envconfig:"DIRECTORY_TIMEOUT" default:"5s"`
}

// SecurityConfig holds CORS settings for the authoring frontend.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// FeatureConfig holds feature flags surfaced to the authoring frontend.
type FeatureConfig struct {
	EnableReplies bool `envconfig:"FEATURE_ENABLE_REPLIES" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
