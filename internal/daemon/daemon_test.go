package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"helixprint/internal/daemon"
	"helixprint/internal/logging"
	"helixprint/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Moonraker.URL = "ws://127.0.0.1:1/websocket"
	store := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, store, logging.NewNop(), daemon.WithScheduler(&testsupport.ManualScheduler{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.HostConnected {
		t.Fatal("expected no host connection")
	}
	if status.APIAddress == "" {
		t.Fatal("expected api address")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Moonraker.URL = "ws://127.0.0.1:1/websocket"
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict")
	}
}

func TestDaemonStartSweepsDanglingLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Moonraker.URL = "ws://127.0.0.1:1/websocket"
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)

	linkDir := filepath.Join(cfg.Paths.GcodeRoot, ".helix_print")
	if err := os.MkdirAll(linkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	dangling := filepath.Join(linkDir, "gone.gcode")
	if err := os.Symlink("../.helix_temp/gone.gcode", dangling); err != nil {
		t.Fatal(err)
	}
	stale := testsupport.WriteFile(t, cfg.Paths.GcodeRoot, ".helix_temp/old.gcode", "G1")
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	fresh := testsupport.WriteFile(t, cfg.Paths.GcodeRoot, ".helix_temp/new.gcode", "G1")

	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if testsupport.Exists(t, dangling) {
		t.Fatal("expected dangling link removed")
	}
	if testsupport.Exists(t, stale) {
		t.Fatal("expected expired temp file removed")
	}
	if !testsupport.Exists(t, fresh) {
		t.Fatal("expected fresh temp file kept")
	}
	if d.Status(context.Background()).APIAddress != "" {
		t.Fatal("expected api disabled with empty bind")
	}
}
