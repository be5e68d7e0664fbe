package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var relatedLimit int

// relatedCmd represents the related command
var relatedCmd = &cobra.Command{
	Use:   "related <link-id>",
	Short: "Find links similar to a saved link",
	Long: `Uses the link's embedding to find the most similar saved links.
Requires postgres mode with embeddings enabled, and the link must have
been embedded already.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		limit := clix.ParseLimit(cmd.Flags(), 10)

		results, err := appInstance.SearchService.RelatedLinks(cmd.Context(), actingUser(appInstance), args[0], limit)
		if err != nil {
			return fmt.Errorf("failed to find related links: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No related links found.")
			return nil
		}

		for _, item := range results {
			fmt.Printf("Score: %.4f\n", item.Score)
			printLink(item.Link)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(relatedCmd)

	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "l", 10, "Maximum number of related links")
}
