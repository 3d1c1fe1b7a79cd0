package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helixprint/internal/api"
)

func newActiveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "active",
		Short: "List prints currently running from a modified file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			prints, err := client.ActivePrints(cmd.Context())
			if err != nil {
				return wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.ActivePrintsResponse{Prints: prints})
			}
			stdout := cmd.OutOrStdout()
			if len(prints) == 0 {
				fmt.Fprintln(stdout, "No active modified prints")
				return nil
			}
			fmt.Fprintln(stdout, renderActivePrints(prints))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderActivePrints(prints []api.ActivePrint) string {
	rows := make([][]string, 0, len(prints))
	for _, p := range prints {
		job := p.JobID
		if job == "" {
			job = "-"
		}
		mods := strings.Join(p.Modifications, ", ")
		if mods == "" {
			mods = "-"
		}
		rows = append(rows, []string{
			p.SymlinkFilename,
			p.OriginalFilename,
			p.TempFilename,
			mods,
			job,
			yesNo(p.CleanupScheduled),
		})
	}
	return renderTable("Active Prints",
		[]string{"Print File", "Original", "Temp File", "Modifications", "Job", "Cleanup"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
