package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var (
	listLimit  int
	listOffset int
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved links",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}

		user := actingUser(appInstance)
		links, err := appInstance.LinkService.ListLinks(cmd.Context(), user, pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}

		if len(links) == 0 {
			fmt.Println("No links found.")
			return nil
		}

		// Resolve collection ids to names for the table.
		names := map[string]string{}
		collections, err := appInstance.CollectionService.ListCollections(cmd.Context(), user, nil)
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}
		for _, c := range collections {
			names[c.ID] = c.Name
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Title", "Domain", "Collection", "Preview", "Saved At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, l := range links {
			collection := "-"
			if l.CollectionID != nil {
				if name, ok := names[*l.CollectionID]; ok {
					collection = name
				} else {
					collection = *l.CollectionID
				}
			}
			table.Append([]string{
				l.ID,
				truncate(l.TitleOrURL(), 60),
				l.Domain,
				collection,
				l.PreviewState,
				l.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "Maximum number of links to list")
	listCmd.Flags().IntVarP(&listOffset, "offset", "o", 0, "Number of links to skip")
}
