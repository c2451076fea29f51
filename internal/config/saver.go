package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Saver writes configuration files as YAML
type Saver struct{}

// NewSaver creates a new configuration saver
func NewSaver() *Saver {
	return &Saver{}
}

// SaveGlobalConfig writes cfg to ~/.litellm.yaml
func (s *Saver) SaveGlobalConfig(cfg *Config) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return s.save(path, cfg)
}

// SaveProjectConfig writes cfg to .litellm.yaml inside dir
func (s *Saver) SaveProjectConfig(dir string, cfg *Config) error {
	return s.save(ProjectConfigPath(dir), cfg)
}

func (s *Saver) save(path string, cfg *Config) error {
	out := *cfg
	if out.Version == 0 {
		out.Version = CurrentConfigVersion
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Files may hold the API key
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return os.Chmod(path, 0600)
}
