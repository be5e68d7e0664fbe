package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <link-id>",
	Short: "Delete a link and its embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		linkID := args[0]
		if err := appInstance.LinkService.DeleteLink(cmd.Context(), actingUser(appInstance), linkID); err != nil {
			return fmt.Errorf("failed to delete link %s: %w", linkID, err)
		}

		fmt.Printf("Deleted link %s\n", linkID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
