package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/user/litellm/internal/errors"
)

// EnvPrefix is the prefix of every environment variable the loader reads
const EnvPrefix = "LITELLM"

// LegacyAPIKeyEnv is still honoured when LITELLM_API_KEY is unset
const LegacyAPIKeyEnv = "LITE_LLM_API_KEY"

// GlobalConfigName and ProjectConfigName are the YAML files the loader merges
const (
	GlobalConfigName  = ".litellm.yaml"
	ProjectConfigName = ".litellm.yaml"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registering every key lets AllSettings see values that only exist in the environment
	defaults := Default()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("embedding_model", defaults.EmbeddingModel)
	v.SetDefault("image_model", defaults.ImageModel)
	v.SetDefault("embedding_dimensions", defaults.EmbeddingDimensions)
	v.SetDefault("enable_message_redaction", false)
	v.SetDefault("debug", false)
	v.SetDefault("max_tool_rounds", 0)
	v.SetDefault("parallel_tool_calls", false)
	v.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	v.SetDefault("retry.multiplier", 0)
	v.SetDefault("retry.max_wait_per_attempt", 0)
	v.SetDefault("retry.max_total_wait", 0)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.file", "")

	return &Loader{v: v}
}

// Load merges every configuration source into a Config.
// Precedence: CLI > Environment > ./.litellm.yaml > ~/.litellm.yaml > Defaults
func (l *Loader) Load(projectDir string, cliOverrides map[string]interface{}) (*Config, error) {
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}

	if err := l.loadProjectConfig(projectDir); err != nil {
		return nil, err
	}

	l.applyCLIOverrides(cliOverrides)

	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
		Squash:           true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, errors.WrapError(errors.KindConfiguration, err, "Failed to decode configuration", errors.ExitConfigError)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(LegacyAPIKeyEnv)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is a shortcut for NewLoader().Load
func Load(projectDir string, cliOverrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(projectDir, cliOverrides)
}

// loadGlobalConfig loads configuration from ~/.litellm.yaml
func (l *Loader) loadGlobalConfig() error {
	globalConfig, err := GlobalConfigPath()
	if err != nil {
		return nil // Not a fatal error
	}

	if !ConfigExists(globalConfig) {
		return nil
	}

	l.v.SetConfigFile(globalConfig)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(globalConfig, err)
	}

	return nil
}

// loadProjectConfig loads configuration from ./.litellm.yaml
func (l *Loader) loadProjectConfig(projectDir string) error {
	configPath := ProjectConfigPath(projectDir)
	if !ConfigExists(configPath) {
		return nil
	}

	l.v.SetConfigFile(configPath)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(configPath, err)
	}

	return nil
}

// applyCLIOverrides applies CLI flag overrides
func (l *Loader) applyCLIOverrides(overrides map[string]interface{}) {
	for key, value := range overrides {
		// Only set if value is not nil
		if value != nil {
			l.v.Set(key, value)
		}
	}
}

// GlobalConfigPath returns the path of the per-user config file
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, GlobalConfigName), nil
}

// ProjectConfigPath returns the path of the project config file in dir
func ProjectConfigPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ProjectConfigName)
}

// ConfigExists reports whether a config file exists at path
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GlobalConfigExists reports whether ~/.litellm.yaml exists
func GlobalConfigExists() bool {
	path, err := GlobalConfigPath()
	if err != nil {
		return false
	}
	return ConfigExists(path)
}

// ProjectConfigExists reports whether dir holds a project config file
func ProjectConfigExists(dir string) bool {
	return ConfigExists(ProjectConfigPath(dir))
}
