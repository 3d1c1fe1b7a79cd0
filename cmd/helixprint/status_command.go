package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"helixprint/internal/api"
	"helixprint/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, engine, and filesystem status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil && !api.IsAPIUnavailable(err) {
				return err
			}

			status, statusErr := client.Status(cmd.Context())
			if statusErr != nil && !api.IsAPIUnavailable(statusErr) {
				return statusErr
			}
			running := statusErr == nil

			var prints []api.ActivePrint
			var tracking api.PhaseTracking
			if running {
				if prints, err = client.ActivePrints(cmd.Context()); err != nil {
					return err
				}
				if tracking, err = client.PhaseTrackingStatus(cmd.Context()); err != nil {
					return err
				}
			}

			var checks []preflight.Result
			if !skipChecks {
				checks = preflight.RunAll(cmd.Context(), cfg)
			}

			if jsonOutput {
				payload := map[string]any{
					"running": running,
					"api":     ctx.apiAddress(),
				}
				if running {
					payload["engine"] = status
					payload["phase_tracking"] = tracking
					payload["active_prints"] = prints
				}
				if checks != nil {
					payload["checks"] = checks
				}
				return writeJSON(cmd, payload)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if running {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, "running at "+ctx.apiAddress(), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running at "+ctx.apiAddress(), colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Gcode root", statusInfo, cfg.Paths.GcodeRoot, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Moonraker", statusInfo, cfg.Moonraker.URL, colorize))

			if running {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Helix Print", colorize) {
					fmt.Fprintln(stdout, line)
				}
				enabledKind := statusOK
				if !status.Enabled {
					enabledKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Enabled", enabledKind, yesNo(status.Enabled), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Version", statusInfo, status.Version, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Temp dir", statusInfo, status.TempDir, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Symlink dir", statusInfo, status.SymlinkDir, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Cleanup delay", statusInfo, strconv.Itoa(status.CleanupDelay)+"s", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Phase tracking", statusInfo, yesNo(tracking.Enabled), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Active prints", statusInfo, strconv.Itoa(status.ActivePrints), colorize))
			}

			if len(checks) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range checkLines(checks, colorize) {
					fmt.Fprintln(stdout, line)
				}
			}

			if len(prints) > 0 {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderActivePrints(prints))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip filesystem and host checks")
	return cmd
}
