package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/litellm"
)

var (
	chatStream        bool
	chatSystem        string
	chatWorkspace     string
	chatParallelTools bool
	chatMaxToolRounds int
	chatTemperature   float64
	chatMaxTokens     int
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt...]",
	Short: "Send a chat completion",
	Long: `Send a prompt to the gateway and print the answer.

The prompt is read from the arguments, or from stdin when no argument or a
single "-" is given.

With --workspace the model can list and read files below that directory.
Tool calls are executed locally and their results sent back until the model
answers.`,
	Example: `  litellm chat "What is the capital of France?"
  litellm chat --stream -m gpt-4o "Write a haiku about Go"
  echo "Summarize the README" | litellm chat --workspace . -`,
	RunE: runChatCmd,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVarP(&chatStream, "stream", "s", false, "Stream the answer as it is generated")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "System prompt")
	chatCmd.Flags().StringVar(&chatWorkspace, "workspace", "", "Let the model read files below this directory")
	chatCmd.Flags().BoolVar(&chatParallelTools, "parallel-tools", false, "Run the tool calls of one round concurrently")
	chatCmd.Flags().IntVar(&chatMaxToolRounds, "max-tool-rounds", 0, "Stop after this many tool rounds (0 uses the configured limit)")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", 0, "Sampling temperature")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "Maximum tokens in the answer")
}

// chatOptions is everything runChat needs besides the client
type chatOptions struct {
	Prompt        string
	System        string
	Stream        bool
	Workspace     string
	Parallel      bool
	MaxToolRounds int
	Options       map[string]interface{}
	ShowTools     bool
}

func runChatCmd(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	opts := chatOptions{
		Prompt:        prompt,
		System:        chatSystem,
		Stream:        chatStream,
		Workspace:     chatWorkspace,
		Parallel:      chatParallelTools,
		MaxToolRounds: chatMaxToolRounds,
		Options:       map[string]interface{}{},
		ShowTools:     verboseFlag,
	}
	if cmd.Flags().Changed("temperature") {
		opts.Options["temperature"] = chatTemperature
	}
	if chatMaxTokens > 0 {
		opts.Options["max_tokens"] = chatMaxTokens
	}

	return runChat(cmd.Context(), cc.Client, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func runChat(ctx context.Context, client *litellm.Client, opts chatOptions, out, errOut io.Writer) error {
	req := litellm.CompletionRequest{
		Messages:          []litellm.Message{litellm.UserMessage(opts.Prompt)},
		SystemPrompt:      opts.System,
		Stream:            opts.Stream,
		MaxToolRounds:     opts.MaxToolRounds,
		ParallelToolCalls: opts.Parallel,
		Options:           opts.Options,
	}
	if opts.Workspace != "" {
		info, err := os.Stat(opts.Workspace)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("workspace %q is not a directory", opts.Workspace)
		}
		req.Tools = litellm.WorkspaceTools(opts.Workspace, 2)
	}
	if opts.ShowTools {
		req.OnToolResult = func(r litellm.ToolResult) {
			status := "ok"
			if r.Failed {
				status = "failed"
			}
			fmt.Fprintf(errOut, "tool %s (%s): %s\n", r.FunctionName, r.ToolCallID, status)
		}
	}
	if opts.Stream {
		req.OnDelta = func(delta string) error {
			_, err := io.WriteString(out, delta)
			return err
		}
	}

	text, err := client.Completion(ctx, req)
	if err != nil {
		if opts.Stream {
			fmt.Fprintln(out)
		}
		return err
	}

	if opts.Stream {
		_, err = fmt.Fprintln(out)
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

// readPrompt joins args, or reads stdin when there are none or the only one is "-"
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}
