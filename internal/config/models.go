package config

import (
	"time"
)

// CurrentConfigVersion is written into every saved config file
const CurrentConfigVersion = 1

// Default values applied when a field is left at its zero value
const (
	DefaultBaseURL             = "http://localhost:8000"
	DefaultTimeout             = 120
	DefaultModel               = "gpt-4o"
	DefaultEmbeddingModel      = "text-embedding-3-large"
	DefaultImageModel          = "dall-e-2"
	DefaultEmbeddingDimensions = 1536
)

// Config holds the gateway client configuration
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Timeout int    `mapstructure:"timeout" yaml:"timeout"` // Request timeout in seconds

	Model               string `mapstructure:"model" yaml:"model"`
	EmbeddingModel      string `mapstructure:"embedding_model" yaml:"embedding_model"`
	ImageModel          string `mapstructure:"image_model" yaml:"image_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions" yaml:"embedding_dimensions"`

	EnableMessageRedaction bool `mapstructure:"enable_message_redaction" yaml:"enable_message_redaction"`
	Debug                  bool `mapstructure:"debug" yaml:"debug"`

	MaxToolRounds     int  `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"` // 0 means unbounded
	ParallelToolCalls bool `mapstructure:"parallel_tool_calls" yaml:"parallel_tool_calls"`

	Retry   RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// RetryConfig holds HTTP retry configuration
type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts" yaml:"max_attempts"`                 // Default: 1 (no retries)
	Multiplier        int `mapstructure:"multiplier" yaml:"multiplier"`                     // Default: 1
	MaxWaitPerAttempt int `mapstructure:"max_wait_per_attempt" yaml:"max_wait_per_attempt"` // Default: 60 seconds
	MaxTotalWait      int `mapstructure:"max_total_wait" yaml:"max_total_wait"`             // Default: 300 seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level,omitempty"` // debug, info, warn, error
	File  string `mapstructure:"file" yaml:"file,omitempty"`   // Optional JSON log file
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults
func ApplyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentConfigVersion
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 1
	}
}

// GetTimeout returns the timeout as a time.Duration
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetLogLevel returns the configured log level, forced to debug when Debug is set
func (c *Config) GetLogLevel() string {
	if c.Debug {
		return "debug"
	}
	if c.Logging.Level == "" {
		return "info"
	}
	return c.Logging.Level
}

// GetMaxAttempts returns the max attempts with a default
func (c *RetryConfig) GetMaxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 1
	}
	return c.MaxAttempts
}

// GetMultiplier returns the backoff multiplier with a default
func (c *RetryConfig) GetMultiplier() int {
	if c.Multiplier <= 0 {
		return 1
	}
	return c.Multiplier
}

// GetMaxWaitPerAttempt returns the per-attempt wait cap as a time.Duration
func (c *RetryConfig) GetMaxWaitPerAttempt() time.Duration {
	if c.MaxWaitPerAttempt <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.MaxWaitPerAttempt) * time.Second
}

// GetMaxTotalWait returns the total wait cap as a time.Duration
func (c *RetryConfig) GetMaxTotalWait() time.Duration {
	if c.MaxTotalWait <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.MaxTotalWait) * time.Second
}
