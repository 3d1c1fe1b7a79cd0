package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/websocket"

	"helixprint/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckManagedDir(t *testing.T) {
	root := t.TempDir()
	if result := CheckManagedDir("temp", root, ".helix_temp"); !result.Passed {
		t.Fatalf("expected missing managed dir to pass, got: %s", result.Detail)
	}
	if err := os.WriteFile(filepath.Join(root, ".helix_print"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckManagedDir("links", root, ".helix_print"); result.Passed {
		t.Fatal("expected failure when managed dir is a file")
	}
	if result := CheckManagedDir("temp", filepath.Join(root, "missing"), ".helix_temp"); result.Passed {
		t.Fatal("expected failure when root is missing")
	}
}

func moonrakerStub(t *testing.T, key string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key != "" && r.Header.Get("X-Api-Key") != key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckMoonraker_OK(t *testing.T) {
	srv := moonrakerStub(t, "good-key")
	result := CheckMoonraker(context.Background(), "ws"+srv.URL[4:]+"/websocket", "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMoonraker_BadKey(t *testing.T) {
	srv := moonrakerStub(t, "good-key")
	result := CheckMoonraker(context.Background(), "ws"+srv.URL[4:]+"/websocket", "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckMoonraker_MissingURL(t *testing.T) {
	if result := CheckMoonraker(context.Background(), "", ""); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	srv := moonrakerStub(t, "")
	cfg := config.Default()
	cfg.Paths.GcodeRoot = t.TempDir()
	cfg.Moonraker.URL = "ws" + srv.URL[4:] + "/websocket"

	results := RunAll(context.Background(), &cfg)
	// gcode root, temp dir, symlink dir, moonraker
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_SkipsManagedDirsWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.GcodeRoot = t.TempDir()
	cfg.Helix[config.HelixEnabled] = false
	cfg.Moonraker.URL = "ws://127.0.0.1:1/websocket"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 0 {
		t.Fatalf("unreachable host must not fail preflight: %+v", failed)
	}
}
