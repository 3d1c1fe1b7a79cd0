package main

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"helixprint/internal/api"
	"helixprint/internal/config"
	"helixprint/internal/fileutil"
)

func newPrintCommand(ctx *commandContext) *cobra.Command {
	var modifications []string
	var upload string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "print <original> [temp-file]",
		Short: "Print a modified file under the original filename",
		Long: `Start a print from a modified copy of a gcode file.

Both paths are relative to the gcode root. The temp file must already sit inside
the configured temp directory, or pass --upload to copy a local file there first.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.PrintModifiedRequest{
				OriginalFilename: strings.TrimSpace(args[0]),
				Modifications:    modifications,
			}
			if len(args) > 1 {
				req.TempFilePath = strings.TrimSpace(args[1])
			}

			if upload != "" {
				if req.TempFilePath != "" {
					return fmt.Errorf("pass either a temp file or --upload, not both")
				}
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				rel, err := uploadTempFile(cfg, upload)
				if err != nil {
					return err
				}
				req.TempFilePath = rel
			}
			if req.TempFilePath == "" {
				return fmt.Errorf("temp file is required (or use --upload)")
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			res, err := client.PrintModified(cmd.Context(), req)
			if err != nil {
				return wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Printing %s from %s\n", res.OriginalFilename, res.TempFilename)
			fmt.Fprintf(out, "Print file: %s\n", res.PrintFilename)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&modifications, "mod", "m", nil, "Modification description (repeatable)")
	cmd.Flags().StringVar(&upload, "upload", "", "Copy a local file into the temp directory and print it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output result as JSON")
	return cmd
}

// uploadTempFile copies a local file into the temp directory and returns its
// path relative to the gcode root.
func uploadTempFile(cfg *config.Config, local string) (string, error) {
	src, err := config.ExpandPath(local)
	if err != nil {
		return "", fmt.Errorf("resolve upload path: %w", err)
	}
	tempDir := cfg.Helix.Get(config.HelixTempDir, ".helix_temp")
	rel := path.Join(filepath.ToSlash(tempDir), filepath.Base(src))
	dst := filepath.Join(cfg.Paths.GcodeRoot, filepath.FromSlash(rel))
	if err := fileutil.CopyVerified(src, dst); err != nil {
		return "", fmt.Errorf("upload %s: %w", src, err)
	}
	return rel, nil
}
