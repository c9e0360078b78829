package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// file mirrors Config for config files. Only keys present in the file are
// applied; durations are written as strings like "30s".
type file struct {
	Server *struct {
		Port            *string  `yaml:"port" toml:"port"`
		Host            *string  `yaml:"host" toml:"host"`
		AllowedOrigins  []string `yaml:"allowed_origins" toml:"allowed_origins"`
		ShutdownTimeout *string  `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	} `yaml:"server" toml:"server"`
	Logging *struct {
		Level       *string `yaml:"level" toml:"level"`
		Development *bool   `yaml:"development" toml:"development"`
	} `yaml:"logging" toml:"logging"`
	RateLimit *struct {
		RequestsPerSecond *int  `yaml:"requests_per_second" toml:"requests_per_second"`
		Burst             *int  `yaml:"burst" toml:"burst"`
		Enabled           *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"rate_limit" toml:"rate_limit"`
	Fetch *struct {
		Timeout     *string  `yaml:"timeout" toml:"timeout"`
		RetryMax    *int     `yaml:"retry_max" toml:"retry_max"`
		RateLimit   *float64 `yaml:"rate_limit" toml:"rate_limit"`
		UserAgent   *string  `yaml:"user_agent" toml:"user_agent"`
		MaxBodySize *int     `yaml:"max_body_size" toml:"max_body_size"`
	} `yaml:"fetch" toml:"fetch"`
	Inspection *struct {
		MaxDepth    *int    `yaml:"max_depth" toml:"max_depth"`
		MaxFrames   *int    `yaml:"max_frames" toml:"max_frames"`
		Concurrency *int    `yaml:"concurrency" toml:"concurrency"`
		Capacity    *int    `yaml:"capacity" toml:"capacity"`
		TTL         *string `yaml:"ttl" toml:"ttl"`
	} `yaml:"inspection" toml:"inspection"`
	Columns []cookies.Column `yaml:"columns" toml:"columns"`
}

// LoadFile overlays the YAML or TOML file at path onto cfg. The format is
// chosen by extension.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return f.apply(cfg)
}

func (f *file) apply(cfg *Config) error {
	if s := f.Server; s != nil {
		set(&cfg.Server.Port, s.Port)
		set(&cfg.Server.Host, s.Host)
		if s.AllowedOrigins != nil {
			cfg.Server.AllowedOrigins = s.AllowedOrigins
		}
		if err := setDuration(&cfg.Server.ShutdownTimeout, s.ShutdownTimeout); err != nil {
			return err
		}
	}
	if l := f.Logging; l != nil {
		set(&cfg.Logging.Level, l.Level)
		set(&cfg.Logging.Development, l.Development)
	}
	if r := f.RateLimit; r != nil {
		set(&cfg.RateLimit.RequestsPerSecond, r.RequestsPerSecond)
		set(&cfg.RateLimit.Burst, r.Burst)
		set(&cfg.RateLimit.Enabled, r.Enabled)
	}
	if fe := f.Fetch; fe != nil {
		if err := setDuration(&cfg.Fetch.Timeout, fe.Timeout); err != nil {
			return err
		}
		set(&cfg.Fetch.RetryMax, fe.RetryMax)
		set(&cfg.Fetch.RateLimit, fe.RateLimit)
		set(&cfg.Fetch.UserAgent, fe.UserAgent)
		set(&cfg.Fetch.MaxBodySize, fe.MaxBodySize)
	}
	if in := f.Inspection; in != nil {
		set(&cfg.Inspection.MaxDepth, in.MaxDepth)
		set(&cfg.Inspection.MaxFrames, in.MaxFrames)
		set(&cfg.Inspection.Concurrency, in.Concurrency)
		set(&cfg.Inspection.Capacity, in.Capacity)
		if err := setDuration(&cfg.Inspection.TTL, in.TTL); err != nil {
			return err
		}
	}
	if f.Columns != nil {
		cfg.Columns = f.Columns
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", *v, err)
	}
	*dst = d
	return nil
}
