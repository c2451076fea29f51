package errors

import (
	"fmt"
)

// ConfigurationError is raised when configuration is invalid or missing
type ConfigurationError struct {
	*GatewayError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		GatewayError: &GatewayError{
			Kind:     KindConfiguration,
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// NewInvalidBaseURLError is raised when the gateway base URL cannot be used
func NewInvalidBaseURLError(baseURL, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{
		GatewayError: &GatewayError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("Invalid base URL: %s", reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Validating configuration",
				Details: map[string]interface{}{
					"base_url": baseURL,
				},
				Suggestions: []string{
					"Set base_url in ~/.litellm.yaml or .litellm.yaml",
					"Export LITELLM_BASE_URL='http://localhost:8000'",
					"Use an http:// or https:// URL",
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}

// ConfigFileError is raised when a configuration file cannot be read or parsed
type ConfigFileError struct {
	*GatewayError
}

// NewConfigFileError creates a new config file error
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		GatewayError: &GatewayError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("Failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"Check that the file exists and is readable",
					"Validate YAML syntax",
					"Check file permissions",
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}
