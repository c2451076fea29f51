package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/litellm/internal/errors"
)

var (
	debugFlag   bool
	verboseFlag bool
	configDir   string
	baseURLFlag string
	apiKeyFlag  string
	modelFlag   string
	timeoutFlag int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "litellm",
	Short: "Command line client for a LiteLLM gateway",
	Long: `Talk to a LiteLLM gateway from the terminal.

Chat with any model the gateway serves, stream answers, let the model read
files from a local workspace, create embeddings and generate images.

Configuration is merged from ~/.litellm.yaml, ./.litellm.yaml, LITELLM_*
environment variables (a .env file is loaded first) and the flags below.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.UserMessage(err))
		os.Exit(errors.ExitCodeFor(err).Int())
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debugFlag, "debug", false, "Log payloads and raw responses")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Show log output and tool activity on stderr")
	flags.StringVar(&configDir, "config-dir", ".", "Directory holding the project .litellm.yaml")
	flags.StringVar(&baseURLFlag, "base-url", "", "Gateway base URL")
	flags.StringVar(&apiKeyFlag, "api-key", "", "Gateway API key")
	flags.StringVarP(&modelFlag, "model", "m", "", "Model to use")
	flags.IntVar(&timeoutFlag, "timeout", 0, "Request timeout in seconds")
}
