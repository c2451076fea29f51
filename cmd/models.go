package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/litellm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models served by the gateway",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := newCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cc.Close()

		return runModels(cmd.Context(), cc.Client, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(ctx context.Context, client *litellm.Client, out io.Writer) error {
	models, err := client.Models(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		fmt.Fprintln(out, m)
	}
	return nil
}
