// Package config loads the restaurant-feed CLI configuration: defaults, then
// an optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.eat-sandbox.co"
	DefaultRegionID    = "3906535a-d96c-47cf-99b0-009fc9e038e0"
	DefaultUserAgent   = "restaurant-feed/0.1.0"
	DefaultPageSize    = 10
	DefaultMetricsAddr = ":9090"
)

// Environment variables that override the file.
const (
	EnvAPIURL      = "RESTAURANT_API_URL"
	EnvRegionID    = "RESTAURANT_REGION_ID"
	EnvPageSize    = "RESTAURANT_PAGE_SIZE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvMetricsAddr = "METRICS_ADDR"
)

// Config is the CLI configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Feed    FeedConfig    `yaml:"feed"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig configures the HTTP client.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxAttempts       int           `yaml:"max_attempts"`
	Cache             *bool         `yaml:"cache"`
}

// CacheEnabled reports whether response caching is on (default true).
func (a APIConfig) CacheEnabled() bool {
	return a.Cache == nil || *a.Cache
}

// FeedConfig selects what the list shows.
type FeedConfig struct {
	RegionID string `yaml:"region_id"`
	Search   string `yaml:"search"`
	PageSize int    `yaml:"page_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Logging converts the section into a logger configuration writing to out.
func (l LogConfig) Logging(out io.Writer) logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(l.Level),
		Pretty: l.Pretty,
		Output: out,
	}
}

// MetricsConfig configures the serve command's HTTP listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			UserAgent:         DefaultUserAgent,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             20,
			MaxAttempts:       3,
		},
		Feed: FeedConfig{
			RegionID: DefaultRegionID,
			PageSize: DefaultPageSize,
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

// Load builds the configuration. An empty path skips the file; a path that
// cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies the environment variables to cfg.
func ApplyEnvOverrides(cfg *Config) error {
	if v := getEnv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := getEnv(EnvRegionID); v != "" {
		cfg.Feed.RegionID = v
	}
	if v := getEnv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.Feed.PageSize = n
	}
	if v := getEnv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getEnv(EnvMetricsAddr); v != "" {
		cfg.Metrics.Addr = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL (got %q)", c.API.BaseURL)
	}
	if c.API.UserAgent == "" {
		return errors.New("api.user_agent is required")
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be >= 1 (got %d)", c.API.MaxAttempts)
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed.page_size must be >= 1 (got %d)", c.Feed.PageSize)
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
