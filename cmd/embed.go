package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/litellm"
)

var (
	embedModel      string
	embedDimensions int
)

var embedCmd = &cobra.Command{
	Use:   "embed <text>...",
	Short: "Create embeddings",
	Long: `Create one embedding per argument and print them as a JSON array of
vectors. The model defaults to embedding_model and the size to
embedding_dimensions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := newCommandContext(cmd)
		if err != nil {
			return err
		}
		defer cc.Close()

		return runEmbed(cmd.Context(), cc.Client, litellm.EmbeddingRequest{
			Input:      args,
			Model:      embedModel,
			Dimensions: embedDimensions,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVar(&embedModel, "embedding-model", "", "Embedding model (defaults to embedding_model)")
	embedCmd.Flags().IntVar(&embedDimensions, "dimensions", 0, "Vector size (defaults to embedding_dimensions)")
}

func runEmbed(ctx context.Context, client *litellm.Client, req litellm.EmbeddingRequest, out io.Writer) error {
	vectors, err := client.Embeddings(ctx, req)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(vectors)
}
