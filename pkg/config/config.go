package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel logrus.Level `yaml:"-" json:"log_level"`
	// LogLevelName is the YAML spelling of LogLevel (debug, info, warn, error).
	LogLevelName string `yaml:"log_level" json:"-" default:"info"`

	// InquiryLength is the default device inquiry duration.
	InquiryLength time.Duration `yaml:"inquiry_length" json:"inquiry_length" default:"8s"`
	// InquirySlack is added to the inquiry length to form the wait timeout.
	InquirySlack time.Duration `yaml:"inquiry_slack" json:"inquiry_slack" default:"5s"`
	// SDPTimeout bounds one service query.
	SDPTimeout time.Duration `yaml:"sdp_timeout" json:"sdp_timeout" default:"10s"`
	// NameRequestTimeout bounds one remote name request.
	NameRequestTimeout time.Duration `yaml:"name_request_timeout" json:"name_request_timeout" default:"10s"`
	// ServiceRefreshInterval: cached services younger than this are reused.
	ServiceRefreshInterval time.Duration `yaml:"service_refresh_interval" json:"service_refresh_interval" default:"2s"`

	OutputFormat string `yaml:"output_format" json:"output_format" default:"table"` // table, json
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.LogLevel = logrus.InfoLevel
	return cfg
}

// Load reads a YAML config file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level in %s: %w", path, err)
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects non-positive timeouts and unknown output formats.
func (c *Config) Validate() error {
	for name, d := range map[string]time.Duration{
		"inquiry_length":       c.InquiryLength,
		"sdp_timeout":          c.SDPTimeout,
		"name_request_timeout": c.NameRequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.InquirySlack < 0 || c.ServiceRefreshInterval < 0 {
		return fmt.Errorf("inquiry_slack and service_refresh_interval must not be negative")
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("output_format must be table or json, got %q", c.OutputFormat)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
