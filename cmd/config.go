package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/litellm/internal/config"
)

var (
	configGlobal bool
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage litellm settings",
	Long: `Create and inspect configuration files.

Configuration can be saved to:
  - Global: ~/.litellm.yaml (applies everywhere)
  - Project: ./.litellm.yaml (overrides the global file)

Environment variables (LITELLM_BASE_URL, LITELLM_API_KEY, ...) and flags
override both files.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file holding every setting with its default value.
--base-url, --api-key, --model and --timeout are written in place of the
defaults when given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := runConfigInit(cmd, configGlobal, configForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir, cliOverrides(cmd))
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVarP(&configGlobal, "global", "g", false, "Write ~/.litellm.yaml instead of the project file")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, global, force bool) (string, error) {
	cfg := config.Default()
	overrides := cliOverrides(cmd)
	if v, ok := overrides["base_url"].(string); ok {
		cfg.BaseURL = v
	}
	if v, ok := overrides["api_key"].(string); ok {
		cfg.APIKey = v
	}
	if v, ok := overrides["model"].(string); ok {
		cfg.Model = v
	}
	if v, ok := overrides["timeout"].(int); ok {
		cfg.Timeout = v
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	saver := config.NewSaver()
	if global {
		path, err := config.GlobalConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if config.ConfigExists(path) && !force {
			return "", fmt.Errorf("%s already exists, use --force to overwrite it", path)
		}
		return path, saver.SaveGlobalConfig(cfg)
	}

	path := config.ProjectConfigPath(configDir)
	if config.ConfigExists(path) && !force {
		return "", fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}
	return path, saver.SaveProjectConfig(configDir, cfg)
}

// writeConfig prints cfg as YAML with the API key masked
func writeConfig(w io.Writer, cfg *config.Config) error {
	out := *cfg
	out.APIKey = maskKey(out.APIKey)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
