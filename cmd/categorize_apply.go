package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// categorizeApplyCmd runs auto-collection for one saved link.
var categorizeApplyCmd = &cobra.Command{
	Use:   "apply <link-id>",
	Short: "Categorize a saved link and file it into a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		user := actingUser(appInstance)

		link, err := appInstance.LinkService.GetLink(cmd.Context(), user, args[0])
		if err != nil {
			return fmt.Errorf("failed to load link %s: %w", args[0], err)
		}

		collections, err := appInstance.CollectionService.ListCollections(cmd.Context(), user, nil)
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}

		result, err := appInstance.AutoCollectService.ProcessLink(cmd.Context(), link, collections)
		if err != nil {
			return fmt.Errorf("auto-collection failed: %w", err)
		}

		if result.CollectionID == "" {
			fmt.Printf("Not filed: %s (confidence %.2f)\n", result.Reason, result.Confidence)
			return nil
		}
		action := "Filed into"
		if result.WasCreated {
			action = "Created and filed into"
		}
		fmt.Printf("%s '%s' (confidence %.2f)\n", action, result.CollectionName, result.Confidence)
		return nil
	},
}

func init() {
	categorizeCmd.AddCommand(categorizeApplyCmd)
}
