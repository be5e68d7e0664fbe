package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkhive/pkg/categorizer"
)

var (
	categorizeTitle       string
	categorizeDescription string
)

// categorizeCmd represents the base command for categorization operations.
var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize links and file them into collections",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// categorizeURLCmd classifies a URL without touching storage.
var categorizeURLCmd = &cobra.Command{
	Use:   "url <address>",
	Short: "Show how a URL would be categorized (dry run)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		match, err := appInstance.Categorizer.Categorize(cmd.Context(), categorizer.Input{
			URL:         args[0],
			Title:       categorizeTitle,
			Description: categorizeDescription,
		})
		if err != nil {
			return fmt.Errorf("categorization failed: %w", err)
		}
		if match == nil {
			fmt.Println("No category matched.")
			return nil
		}

		fmt.Printf("Category:   %s\n", match.Category)
		fmt.Printf("Confidence: %.2f\n", match.Confidence)
		if len(match.Reasons) > 0 {
			fmt.Println("Reasons:")
			for _, reason := range match.Reasons {
				fmt.Printf("  - %s\n", reason)
			}
		}
		return nil
	},
}

func init() {
	categorizeURLCmd.Flags().StringVarP(&categorizeTitle, "title", "t", "", "Title to classify with")
	categorizeURLCmd.Flags().StringVarP(&categorizeDescription, "description", "d", "", "Description to classify with")

	categorizeCmd.AddCommand(categorizeURLCmd)
	rootCmd.AddCommand(categorizeCmd)
}
