package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkhive/internal/services"
)

var (
	addTitle       string
	addDescription string
	addCollect     bool
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a link",
	Long: `Saves a URL for the acting user. Saving the same URL twice returns the
existing link instead of creating a duplicate. With --collect the
preview fetch and auto-collection run inline instead of on the queue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		link, created, err := appInstance.LinkService.SaveLink(cmd.Context(), services.SaveLinkParams{
			UserID:      actingUser(appInstance),
			URL:         args[0],
			Title:       addTitle,
			Description: addDescription,
			Via:         "cli",
			Collect:     addCollect,
		})
		if err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}

		if !created {
			fmt.Printf("Already saved: %s (ID: %s)\n", link.URL, link.ID)
			return nil
		}

		fmt.Printf("Saved %s (ID: %s)\n", link.URL, link.ID)
		if link.CollectionID != nil {
			fmt.Printf("Filed into collection %s\n", *link.CollectionID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Title for the link (otherwise taken from the page preview)")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description for the link")
	addCmd.Flags().BoolVarP(&addCollect, "collect", "c", false, "Fetch the preview and auto-collect inline")
}
