package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest collections for recently saved links",
	Long: `Looks at recently saved unfiled links and suggests collections for the
categories that keep showing up.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		suggestions, err := appInstance.AutoCollectService.SmartSuggestions(cmd.Context(), actingUser(appInstance))
		if err != nil {
			return fmt.Errorf("failed to compute suggestions: %w", err)
		}
		if len(suggestions) == 0 {
			fmt.Println("No suggestions right now. Save a few more links and try again.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Collection", "Links", "Confidence", "Examples"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, s := range suggestions {
			examples := make([]string, 0, len(s.Preview))
			for _, p := range s.Preview {
				if p.Title != "" {
					examples = append(examples, p.Title)
				} else {
					examples = append(examples, p.URL)
				}
			}
			table.Append([]string{
				s.Name,
				strconv.Itoa(s.EstimatedLinks),
				fmt.Sprintf("%.2f", s.Confidence),
				truncate(strings.Join(examples, "; "), 70),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
