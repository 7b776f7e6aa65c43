package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Store drivers
const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Config holds the configuration for the photo service.
// Environment variables are read with the PHOTOLIO_ prefix and fall back to the
// unprefixed name, so TABLE_NAME and AWS_REGION work as set by the deployment.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage selection: dynamodb (DynamoDB + S3) or memory (in-process, for local runs)
	StoreDriver string `envconfig:"STORE_DRIVER" default:"dynamodb"`

	// Metadata table
	TableName    string `envconfig:"TABLE_NAME"`
	PhotoIDIndex string `envconfig:"PHOTO_ID_INDEX" default:"PhotoIdIndex"`

	// Image objects
	BucketName   string `envconfig:"BUCKET_NAME" default:"photolio-photos"`
	PhotoBaseURL string `envconfig:"PHOTO_BASE_URL" default:"https://photolio-photos.s3.ap-northeast-1.amazonaws.com"`

	// AWS
	AWSRegion             string `envconfig:"AWS_REGION" default:"ap-northeast-1"`
	AWSEndpointURL        string `envconfig:"AWS_ENDPOINT_URL" default:""`
	AWSHTTPTimeoutSeconds int    `envconfig:"AWS_HTTP_TIMEOUT_SECONDS" default:"3"`

	// Album behaviour
	DefaultAlbumID    string `envconfig:"DEFAULT_ALBUM_ID" default:"all"`
	ListLimit         int    `envconfig:"LIST_LIMIT" default:"10"`
	DeleteConcurrency int    `envconfig:"DELETE_CONCURRENCY" default:"0"`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates the store driver and the settings it depends on.
func (c *Config) ResolveDefaults() error {
	if c.StoreDriver == "" {
		c.StoreDriver = StoreDynamoDB
	}
	switch c.StoreDriver {
	case StoreDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required for store driver %s", c.StoreDriver)
		}
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME is required for store driver %s", c.StoreDriver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}

	if c.DefaultAlbumID == "" {
		return fmt.Errorf("DEFAULT_ALBUM_ID must not be empty")
	}
	if c.ListLimit <= 0 {
		return fmt.Errorf("LIST_LIMIT must be positive, got %d", c.ListLimit)
	}
	if c.DeleteConcurrency < 0 {
		return fmt.Errorf("DELETE_CONCURRENCY must not be negative, got %d", c.DeleteConcurrency)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Example: PHOTOLIO_TABLE_NAME, PHOTOLIO_HTTP_PORT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PHOTOLIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Str("table", cfg.TableName).
		Str("bucket", cfg.BucketName).
		Str("region", cfg.AWSRegion).
		Bool("endpoint_override", cfg.AWSEndpointURL != "").
		Int("port", cfg.HTTPPort).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		StoreDriver:               StoreMemory,
		TableName:                 "photolio-test",
		PhotoIDIndex:              "PhotoIdIndex",
		BucketName:                "photolio-photos-test",
		PhotoBaseURL:              "https://photos.example.test",
		AWSRegion:                 "us-east-1",
		AWSHTTPTimeoutSeconds:     3,
		DefaultAlbumID:            "all",
		ListLimit:                 10,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AWSHTTPTimeout returns the per-request timeout used by the AWS HTTP client.
func (c *Config) AWSHTTPTimeout() time.Duration {
	return time.Duration(c.AWSHTTPTimeoutSeconds) * time.Second
}
