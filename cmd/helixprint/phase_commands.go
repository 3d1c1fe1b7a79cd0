package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPhaseCommand(ctx *commandContext) *cobra.Command {
	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "Control phase tracking on the printer",
	}

	phaseCmd.AddCommand(newPhaseToggleCommand(ctx, "enable", true))
	phaseCmd.AddCommand(newPhaseToggleCommand(ctx, "disable", false))
	phaseCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether phase tracking is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			res, err := client.PhaseTrackingStatus(cmd.Context())
			if err != nil {
				return wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Phase tracking: %s\n", enabledLabel(res.Enabled))
			return nil
		},
	})
	return phaseCmd
}

func newPhaseToggleCommand(ctx *commandContext, use string, enable bool) *cobra.Command {
	short := "Disable phase tracking"
	if enable {
		short = "Enable phase tracking"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			res, err := client.SetPhaseTracking(cmd.Context(), enable)
			if err != nil {
				return wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Phase tracking %s\n", enabledLabel(res.Enabled))
			return nil
		},
	}
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
