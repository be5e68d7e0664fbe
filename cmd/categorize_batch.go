package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	categorizeBatchSize  int
	categorizeBatchApply bool
)

// categorizeBatchCmd scans the backlog of unfiled links.
var categorizeBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Categorize the backlog of unfiled links",
	Long: `Scans up to --batch unfiled links and shows which collections they
would be filed into. With --apply the suggestions are acted on:
collections are created or reused and the links are filed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		user := actingUser(appInstance)

		if categorizeBatchApply {
			results, err := appInstance.AutoCollectService.ApplyBacklog(cmd.Context(), user, categorizeBatchSize)
			if err != nil {
				return fmt.Errorf("failed to apply backlog: %w", err)
			}
			if len(results) == 0 {
				fmt.Println("No unfiled links to process.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Link", "Collection", "Confidence", "Outcome"})
			table.SetBorder(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			filed := 0
			for _, r := range results {
				collection := "-"
				if r.CollectionName != "" {
					collection = r.CollectionName
					filed++
				}
				table.Append([]string{r.LinkID, collection, fmt.Sprintf("%.2f", r.Confidence), r.Reason})
			}
			table.Render()
			fmt.Printf("\nFiled %d of %d links.\n", filed, len(results))
			return nil
		}

		suggestions, err := appInstance.AutoCollectService.SuggestForBacklog(cmd.Context(), user, categorizeBatchSize)
		if err != nil {
			return fmt.Errorf("failed to scan backlog: %w", err)
		}
		if suggestions.TotalProcessed == 0 {
			fmt.Println("No unfiled links to process.")
			return nil
		}
		if len(suggestions.Suggestions) == 0 {
			fmt.Printf("Scanned %d links, none confident enough to suggest.\n", suggestions.TotalProcessed)
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Link", "Title", "Collection", "Confidence"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range suggestions.Suggestions {
			title := s.Title
			if title == "" {
				title = s.URL
			}
			table.Append([]string{s.LinkID, truncate(title, 50), s.CollectionName, fmt.Sprintf("%.2f", s.Confidence)})
		}
		table.Render()
		fmt.Printf("\n%d suggestions from %d scanned links. Re-run with --apply to file them.\n",
			len(suggestions.Suggestions), suggestions.TotalProcessed)
		return nil
	},
}

func init() {
	categorizeBatchCmd.Flags().IntVarP(&categorizeBatchSize, "batch", "b", 20, "Maximum number of unfiled links to scan")
	categorizeBatchCmd.Flags().BoolVar(&categorizeBatchApply, "apply", false, "File the links instead of only suggesting")

	categorizeCmd.AddCommand(categorizeBatchCmd)
}
