package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"linkhive/internal/clix"
	"linkhive/internal/models"
)

var (
	searchLimit    int
	searchSemantic bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search saved links",
	Long: `Performs a keyword search over URLs, titles and descriptions.
Use --semantic for embedding-based search (postgres mode with
embeddings enabled).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		user := actingUser(appInstance)
		limit := clix.ParseLimit(cmd.Flags(), appInstance.Config.Search.DefaultLimit)

		if searchSemantic {
			results, err := appInstance.SearchService.SemanticSearch(cmd.Context(), user, query, limit)
			if err != nil {
				return fmt.Errorf("semantic search failed: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("No results found.")
				return nil
			}
			for _, item := range results {
				fmt.Printf("Score: %.4f\n", item.Score)
				printLink(item.Link)
			}
			return nil
		}

		links, err := appInstance.SearchService.KeywordSearch(cmd.Context(), user, query, limit)
		if err != nil {
			return fmt.Errorf("keyword search failed: %w", err)
		}
		if len(links) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for _, link := range links {
			printLink(link)
		}
		return nil
	},
}

func printLink(link *models.Link) {
	fmt.Printf("ID:    %s\n", link.ID)
	fmt.Printf("Title: %s\n", link.TitleOrURL())
	fmt.Printf("URL:   %s\n", link.URL)
	if link.Description != nil && *link.Description != "" {
		snippet := strings.ReplaceAll(*link.Description, "\n", " ")
		fmt.Printf("About: %s\n", truncate(snippet, 200))
	}
	fmt.Println("---")
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Limit the number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "Use embedding-based semantic search")
}
