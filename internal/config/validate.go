package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/user/litellm/internal/errors"
)

// Validate checks that the configuration can be used to reach a gateway
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.NewInvalidBaseURLError(c.BaseURL, "base URL is required", nil)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.NewInvalidBaseURLError(c.BaseURL, "cannot be parsed", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewInvalidBaseURLError(c.BaseURL, fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return errors.NewInvalidBaseURLError(c.BaseURL, "missing host", nil)
	}

	if c.Timeout < 0 {
		return errors.NewConfigurationError(fmt.Sprintf("timeout must not be negative, got %d", c.Timeout))
	}
	if c.MaxToolRounds < 0 {
		return errors.NewConfigurationError(fmt.Sprintf("max_tool_rounds must not be negative, got %d", c.MaxToolRounds))
	}
	if c.EmbeddingDimensions < 0 {
		return errors.NewConfigurationError(fmt.Sprintf("embedding_dimensions must not be negative, got %d", c.EmbeddingDimensions))
	}

	return nil
}
