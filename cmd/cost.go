package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var (
	costListLimit  int
	costListOffset int
)

// costCmd represents the base command for cost operations.
var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "View AI usage costs",
	Long:  `Provides subcommands to list recorded AI API calls and summarize their cost.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// costListCmd represents the command to list cost logs.
var costListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded AI API calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.CostService == nil {
			return fmt.Errorf("cost tracking is only available in postgres mode")
		}

		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}
		logs, err := appInstance.CostService.ListUsage(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list usage logs: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Timestamp", "Provider", "Service", "Model", "In", "Out", "Cost", "Link"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, entry := range logs {
			linkID := "-"
			if entry.RelatedLinkID != nil {
				linkID = *entry.RelatedLinkID
			}
			table.Append([]string{
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.ProviderName,
				entry.ServiceType,
				entry.ModelName,
				strconv.Itoa(entry.InputTokens),
				strconv.Itoa(entry.OutputTokens),
				fmt.Sprintf("$%.6f", entry.Cost),
				linkID,
			})
		}
		table.Render()
		fmt.Printf("\nDisplayed %d entries.\n", len(logs))
		return nil
	},
}

// costSummaryCmd represents the command to view the cost summary.
var costSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize AI costs by provider and service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.CostService == nil {
			return fmt.Errorf("cost tracking is only available in postgres mode")
		}

		report, err := appInstance.CostService.Summary(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to summarize costs: %w", err)
		}
		if len(report.Lines) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Provider", "Service", "Calls", "In Tokens", "Out Tokens", "Cost"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, line := range report.Lines {
			table.Append([]string{
				line.ProviderName,
				line.ServiceType,
				strconv.Itoa(line.Calls),
				strconv.FormatInt(line.InputTokens, 10),
				strconv.FormatInt(line.OutputTokens, 10),
				fmt.Sprintf("$%.6f", line.Cost),
			})
		}
		table.Render()

		fmt.Printf("\nTotal cost:          $%.6f\n", report.TotalCost)
		fmt.Printf("Total input tokens:  %d\n", report.TotalInputTokens)
		fmt.Printf("Total output tokens: %d\n", report.TotalOutputTokens)
		return nil
	},
}

func init() {
	costCmd.AddCommand(costListCmd)
	costCmd.AddCommand(costSummaryCmd)

	costListCmd.Flags().IntVarP(&costListLimit, "limit", "l", 50, "Number of entries to display")
	costListCmd.Flags().IntVarP(&costListOffset, "offset", "o", 0, "Number of entries to skip")

	rootCmd.AddCommand(costCmd)
}
