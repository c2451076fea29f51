package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/litellm"
)

var (
	imageModel string
	imageSize  string
)

var imageCmd = &cobra.Command{
	Use:   "image <prompt>...",
	Short: "Generate an image and print its URL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := newCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cc.Close()

		req := litellm.ImageRequest{
			Prompt: strings.Join(args, " "),
			Model:  imageModel,
		}
		if imageSize != "" {
			req.Options = map[string]interface{}{"size": imageSize}
		}
		return runImage(cmd.Context(), cc.Client, req, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringVar(&imageModel, "image-model", "", "Image model (defaults to image_model)")
	imageCmd.Flags().StringVar(&imageSize, "size", "", "Image size, e.g. 1024x1024")
}

func runImage(ctx context.Context, client *litellm.Client, req litellm.ImageRequest, out io.Writer) error {
	url, err := client.ImageGeneration(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, url)
	return err
}
