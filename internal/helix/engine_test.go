package helix_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"helixprint/internal/helix"
	"helixprint/internal/testsupport"
)

type fixture struct {
	engine  *helix.Engine
	root    string
	host    *testsupport.FakeHost
	history *testsupport.FakeHistory
	sched   *testsupport.ManualScheduler
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	f := fixture{
		root:    cfg.Paths.GcodeRoot,
		host:    testsupport.NewFakeHost(),
		history: testsupport.NewFakeHistory(),
		sched:   &testsupport.ManualScheduler{},
	}
	engine, err := helix.New(helix.Options{
		Config:    cfg.Helix,
		Roots:     cfg,
		Host:      f.host,
		History:   f.history,
		Recorder:  f.history,
		Scheduler: f.sched,
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("helix.New: %v", err)
	}
	t.Cleanup(engine.Close)
	f.engine = engine
	return f
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	testsupport.WriteFile(t, f.root, "benchy.gcode", "G28\nG1 X0")
	testsupport.WriteFile(t, f.root, ".helix_temp/mod_benchy.gcode", "G1 X0")
}

func (f fixture) print(t *testing.T) helix.PrintResult {
	t.Helper()
	result, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "benchy.gcode",
		TempFilePath:     ".helix_temp/mod_benchy.gcode",
		Modifications:    []string{"bed_leveling_disabled"},
	})
	if err != nil {
		t.Fatalf("PrintModified: %v", err)
	}
	return result
}

func TestPrintModifiedPublishesAndStarts(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	result := f.print(t)
	want := helix.PrintResult{
		OriginalFilename: "benchy.gcode",
		Status:           "printing",
		TempFilename:     ".helix_temp/mod_benchy.gcode",
		PrintFilename:    ".helix_print/benchy.gcode",
	}
	if result != want {
		t.Fatalf("result = %+v, want %+v", result, want)
	}

	data, err := os.ReadFile(filepath.Join(f.root, ".helix_print", "benchy.gcode"))
	if err != nil || string(data) != "G1 X0" {
		t.Fatalf("link does not resolve to temp file: %q, %v", data, err)
	}

	commands := f.host.Commands()
	if len(commands) != 1 || commands[0] != `SDCARD_PRINT_FILE FILENAME=".helix_print/benchy.gcode"` {
		t.Fatalf("unexpected commands %q", commands)
	}

	if n := f.engine.Registry().Len(); n != 1 {
		t.Fatalf("registry size = %d", n)
	}
	info, ok := f.engine.Registry().Get(".helix_print/benchy.gcode")
	if !ok {
		t.Fatal("expected registry entry")
	}
	if info.OriginalFilename != "benchy.gcode" || len(info.Modifications) != 1 || info.Modifications[0] != "bed_leveling_disabled" {
		t.Fatalf("unexpected entry %+v", info)
	}
	if info.StartTime != 1700000000 || info.JobID != "" || info.DBID != 0 {
		t.Fatalf("unexpected bookkeeping %+v", info)
	}
}

func TestPrintModifiedMissingOriginal(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.root, ".helix_temp/mod_benchy.gcode", "G1")

	_, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "benchy.gcode",
		TempFilePath:     ".helix_temp/mod_benchy.gcode",
	})
	if err == nil || !strings.Contains(err.Error(), "not found") || !errors.Is(err, helix.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if testsupport.Exists(t, filepath.Join(f.root, ".helix_print", "benchy.gcode")) {
		t.Fatal("link must not be created")
	}
	if f.engine.Registry().Len() != 0 || len(f.host.Commands()) != 0 {
		t.Fatal("registry and host must be untouched")
	}
}

func TestPrintModifiedDisabled(t *testing.T) {
	f := newFixture(t, testsupport.WithHelix("enabled", false))
	for _, seeded := range []bool{false, true} {
		if seeded {
			f.seed(t)
		}
		_, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
			OriginalFilename: "benchy.gcode",
			TempFilePath:     ".helix_temp/mod_benchy.gcode",
		})
		if err == nil || !strings.Contains(err.Error(), "disabled") || !errors.Is(err, helix.ErrDisabled) {
			t.Fatalf("seeded=%v: expected disabled error, got %v", seeded, err)
		}
	}
	if len(f.host.Commands()) != 0 {
		t.Fatal("no command may be sent while disabled")
	}
}

func TestPrintModifiedReplacesStaleLink(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	linkPath := filepath.Join(f.root, ".helix_print", "benchy.gcode")
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(f.root, ".helix_temp", "old.gcode"), linkPath); err != nil {
		t.Fatal(err)
	}

	f.print(t)
	data, err := os.ReadFile(linkPath)
	if err != nil || string(data) != "G1 X0" {
		t.Fatalf("expected link to new temp file, got %q (%v)", data, err)
	}
}

func TestStatusBeforeDispatch(t *testing.T) {
	f := newFixture(t, testsupport.WithHelix("cleanup_delay", int64(3600)))
	status := f.engine.Status()
	if status.ActivePrints != 0 || status.Version != "1.0.0" || status.CleanupDelay != 3600 {
		t.Fatalf("unexpected status %+v", status)
	}
	if !status.Enabled || status.TempDir != ".helix_temp" || status.SymlinkDir != ".helix_print" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestPrintModifiedValidatesTempPath(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	testsupport.WriteFile(t, f.root, "elsewhere/mod.gcode", "G1")

	cases := []struct {
		name     string
		original string
		temp     string
		want     error
	}{
		{"missing temp", "benchy.gcode", ".helix_temp/missing.gcode", helix.ErrNotFound},
		{"temp outside temp dir", "benchy.gcode", "elsewhere/mod.gcode", helix.ErrInvalidPath},
		{"temp traversal", "benchy.gcode", ".helix_temp/../../etc/passwd", helix.ErrInvalidPath},
		{"original traversal", "../benchy.gcode", ".helix_temp/mod_benchy.gcode", helix.ErrInvalidPath},
		{"absolute original", "/etc/passwd", ".helix_temp/mod_benchy.gcode", helix.ErrInvalidPath},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
				OriginalFilename: tc.original,
				TempFilePath:     tc.temp,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if f.engine.Registry().Len() != 0 {
		t.Fatal("registry must stay empty")
	}
}

func TestPrintModifiedRejectsTempLinkOutsideRoot(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	outside := filepath.Join(t.TempDir(), "secret.gcode")
	if err := os.WriteFile(outside, []byte("SECRET"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(f.root, ".helix_temp", "evil.gcode")); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "benchy.gcode",
		TempFilePath:     ".helix_temp/evil.gcode",
	})
	if !errors.Is(err, helix.ErrInvalidPath) {
		t.Fatalf("expected invalid path, got %v", err)
	}
	if testsupport.Exists(t, filepath.Join(f.root, ".helix_print", "benchy.gcode")) {
		t.Fatal("link must not be created")
	}
	if f.engine.Registry().Len() != 0 || len(f.host.Commands()) != 0 {
		t.Fatal("registry and host must be untouched")
	}
}

func TestPrintModifiedHostFailures(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	f.host.SendErr = testsupport.ErrHostDown
	_, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "benchy.gcode",
		TempFilePath:     ".helix_temp/mod_benchy.gcode",
	})
	if !errors.Is(err, helix.ErrHostCommunication) || !errors.Is(err, testsupport.ErrHostDown) {
		t.Fatalf("expected host communication error, got %v", err)
	}
	if f.engine.Registry().Len() != 0 {
		t.Fatal("failed start must not stay registered")
	}
	if testsupport.Exists(t, filepath.Join(f.root, ".helix_print", "benchy.gcode")) {
		t.Fatal("failed start must not leave a link")
	}

	f.engine.OnHostLost()
	_, err = f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "benchy.gcode",
		TempFilePath:     ".helix_temp/mod_benchy.gcode",
	})
	if !errors.Is(err, helix.ErrHostUnavailable) {
		t.Fatalf("expected host unavailable, got %v", err)
	}
}

func TestSubdirectoryOriginalUsesBasename(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.root, "prints/2024/benchy.gcode", "G28")
	testsupport.WriteFile(t, f.root, ".helix_temp/mod.gcode", "G1")

	result, err := f.engine.PrintModified(context.Background(), helix.PrintRequest{
		OriginalFilename: "prints/2024/benchy.gcode",
		TempFilePath:     ".helix_temp/mod.gcode",
	})
	if err != nil {
		t.Fatalf("PrintModified: %v", err)
	}
	if result.PrintFilename != ".helix_print/benchy.gcode" || result.OriginalFilename != "prints/2024/benchy.gcode" {
		t.Fatalf("unexpected result %+v", result)
	}
}
