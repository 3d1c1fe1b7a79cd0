package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"helixprint/internal/config"
	"helixprint/internal/daemon"
	"helixprint/internal/logging"
	"helixprint/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	host       *testsupport.FakeHost
	apiAddr    string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Moonraker.URL = "ws://127.0.0.1:1/websocket"
	cfg.Moonraker.ReconnectDelay = 60

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop(), daemon.WithScheduler(&testsupport.ManualScheduler{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	host := testsupport.NewFakeHost()
	d.Engine().OnHostReady(host)

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		host:       host,
		apiAddr:    d.Status(ctx).APIAddress,
		configPath: configPath,
		cancel:     cancel,
	}
	t.Cleanup(func() {
		cancel()
		d.Close()
	})
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.apiAddr, e.configPath)
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ngcode_root = %q\ndata_dir = %q\napi_bind = %q\n\n[moonraker]\nurl = %q\nreconnect_delay = %d\n",
		cfg.Paths.GcodeRoot,
		cfg.Paths.DataDir,
		cfg.Paths.APIBind,
		cfg.Moonraker.URL,
		cfg.Moonraker.ReconnectDelay,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
