package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"helixprint/internal/daemon"
	"helixprint/internal/history"
	"helixprint/internal/logging"
	"helixprint/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the helixprint daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, skipChecks)
		},
	}
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Start even when preflight checks fail")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, skipChecks bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	results := preflight.RunAll(signalCtx, cfg)
	for _, r := range results {
		switch {
		case r.Passed:
			logger.Debug("preflight check passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		case r.Optional:
			logging.WarnWithContext(logger, "preflight check failed", "preflight_optional",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldImpact, "daemon keeps retrying in the background"),
			)
		default:
			logger.Error("preflight check failed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 && !skipChecks {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		return fmt.Errorf("preflight failed: %s (use --skip-checks to start anyway)", strings.Join(names, ", "))
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	fmt.Fprintf(os.Stderr, "helixprint listening on %s (log: %s)\n", d.Status(signalCtx).APIAddress, d.LogPath())

	<-signalCtx.Done()
	logger.Info("helixprint daemon shutting down")
	return nil
}
