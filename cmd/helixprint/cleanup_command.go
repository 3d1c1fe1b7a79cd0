package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "cleanup [print-file]",
		Short: "Remove the link and temp file of a tracked print now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			if target == "" && !all {
				return fmt.Errorf("specify a print file or --all")
			}
			if target != "" && all {
				return fmt.Errorf("--all does not take a print file")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cleaned, err := client.Cleanup(cmd.Context(), target)
			if err != nil {
				return wrapAPIError(err)
			}
			out := cmd.OutOrStdout()
			if len(cleaned) == 0 {
				fmt.Fprintln(out, "Nothing to clean up")
				return nil
			}
			for _, name := range cleaned {
				fmt.Fprintf(out, "Cleaned %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Clean up every tracked print")
	return cmd
}
