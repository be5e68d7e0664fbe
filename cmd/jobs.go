package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"linkhive/internal/clix"
)

var (
	jobsLimit  int
	jobsOffset int
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List background jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if appInstance.JobsService == nil {
			return fmt.Errorf("background jobs are only tracked in postgres mode")
		}

		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}
		jobs, err := appInstance.JobsService.ListJobs(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Println("No background jobs recorded.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Job ID", "Task", "Queue", "Status", "Entity", "Updated At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, j := range jobs {
			entity := "-"
			if j.RelatedEntityID != nil {
				entity = *j.RelatedEntityID
			}
			table.Append([]string{
				j.JobID.String(),
				j.TaskType,
				j.Queue,
				j.Status,
				entity,
				j.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "l", 50, "Number of jobs to display")
	jobsCmd.Flags().IntVarP(&jobsOffset, "offset", "o", 0, "Number of jobs to skip")
}
