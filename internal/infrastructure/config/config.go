package config

import (
	"fmt"
	"os"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/kelseyhightower/envconfig"
)

// FileEnv names the variable pointing at an optional config file.
const FileEnv = "FRAMELENS_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Fetch      FetchConfig
	Inspection InspectionConfig
	// Columns overrides the cookie table layout. Only settable from a file.
	Columns []cookies.Column `ignored:"true"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// FetchConfig holds document fetching configuration.
type FetchConfig struct {
	Timeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	RetryMax    int           `envconfig:"FETCH_RETRY_MAX" default:"2"`
	RateLimit   float64       `envconfig:"FETCH_RATE_LIMIT" default:"20"`
	UserAgent   string        `envconfig:"FETCH_USER_AGENT"`
	MaxBodySize int           `envconfig:"FETCH_MAX_BODY" default:"10485760"`
}

// InspectionConfig bounds crawls and the inspection store.
type InspectionConfig struct {
	MaxDepth    int           `envconfig:"INSPECT_MAX_DEPTH" default:"3"`
	MaxFrames   int           `envconfig:"INSPECT_MAX_FRAMES" default:"50"`
	Concurrency int           `envconfig:"INSPECT_CONCURRENCY" default:"4"`
	Capacity    int           `envconfig:"STORE_CAPACITY" default:"100"`
	TTL         time.Duration `envconfig:"STORE_TTL" default:"1h"`
}

// Load loads configuration from environment variables, then overlays the
// file named by FRAMELENS_CONFIG when set.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv(FileEnv); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			RetryMax:    2,
			RateLimit:   20,
			MaxBodySize: 10 * 1024 * 1024,
		},
		Inspection: InspectionConfig{
			MaxDepth:    3,
			MaxFrames:   50,
			Concurrency: 4,
			Capacity:    100,
			TTL:         time.Hour,
		},
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Inspection.MaxDepth < 0 {
		return fmt.Errorf("invalid config: max depth must not be negative")
	}
	if c.Inspection.Concurrency < 1 {
		return fmt.Errorf("invalid config: concurrency must be at least 1")
	}
	if len(c.Columns) > 0 {
		hasName := false
		for _, col := range c.Columns {
			if col.Key == "" {
				return fmt.Errorf("invalid config: column without key")
			}
			if col.Key == cookies.ColumnName {
				hasName = true
			}
		}
		if !hasName {
			return fmt.Errorf("invalid config: columns must include %q", cookies.ColumnName)
		}
	}
	return nil
}
