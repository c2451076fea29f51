package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/litellm"
	"github.com/user/litellm/internal/config"
	"github.com/user/litellm/internal/logging"
)

// CommandContext holds common resources used by CLI commands
type CommandContext struct {
	Config *config.Config
	Logger *logging.Logger
	Client *litellm.Client
}

// Close flushes the logger
func (c *CommandContext) Close() {
	_ = c.Logger.Sync()
}

// cliOverrides maps the persistent flags the user actually set onto config keys
func cliOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := map[string]interface{}{}
	flags := cmd.Flags()

	if flags.Changed("base-url") {
		overrides["base_url"] = baseURLFlag
	}
	if flags.Changed("api-key") {
		overrides["api_key"] = apiKeyFlag
	}
	if flags.Changed("model") {
		overrides["model"] = modelFlag
	}
	if flags.Changed("timeout") {
		overrides["timeout"] = timeoutFlag
	}
	if flags.Changed("debug") {
		overrides["debug"] = debugFlag
	}
	return overrides
}

// InitLogger creates the CLI logger. Console output goes to stderr and is
// only enabled with --verbose or debug; a JSON file sink is added when
// logging.file is configured.
//
// The caller is responsible for calling logger.Sync() when done.
func InitLogger(cfg *config.Config, verbose bool, stderr io.Writer) (*logging.Logger, error) {
	logger, err := logging.NewLogger(&logging.Config{
		LogFile:        cfg.Logging.File,
		Level:          logging.LevelFromString(cfg.GetLogLevel()),
		EnableCaller:   cfg.Debug,
		ConsoleEnabled: verbose || cfg.Debug,
		Console:        stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// newCommandContext loads the configuration and builds a logger and client
func newCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := config.Load(configDir, cliOverrides(cmd))
	if err != nil {
		return nil, err
	}

	logger, err := InitLogger(cfg, verboseFlag, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	client, err := litellm.New(*cfg, litellm.WithLogger(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	logger.Debug("Client ready",
		logging.String("base_url", cfg.BaseURL),
		logging.String("model", cfg.Model),
	)
	return &CommandContext{Config: cfg, Logger: logger, Client: client}, nil
}
