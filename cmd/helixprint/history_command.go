package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helixprint/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent print jobs recorded by the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be positive")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			jobs, err := client.History(cmd.Context(), limit)
			if err != nil {
				return wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.HistoryResponse{Jobs: jobs})
			}
			stdout := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.JobID,
					job.Filename,
					job.Status,
					dashIfEmpty(job.StartTime),
					dashIfEmpty(job.EndTime),
					dashIfEmpty(strings.Join(job.Modifications, ", ")),
				})
			}
			fmt.Fprintln(stdout, renderTable("",
				[]string{"Job", "File", "Status", "Started", "Ended", "Modifications"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
