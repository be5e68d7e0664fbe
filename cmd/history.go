package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently saved links",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		limit := clix.ParseLimit(cmd.Flags(), 20)

		links, err := appInstance.LinkService.RecentLinks(cmd.Context(), actingUser(appInstance), limit)
		if err != nil {
			return fmt.Errorf("failed to list recent links: %w", err)
		}
		if len(links) == 0 {
			fmt.Println("No links saved yet.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Saved At", "Title", "Via", "ID"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, l := range links {
			table.Append([]string{
				l.CreatedAt.Format("2006-01-02 15:04:05"),
				truncate(l.TitleOrURL(), 60),
				l.SavedVia,
				l.ID,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of links to show")
}
