package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to root/relative, creating parent directories,
// and returns the absolute path.
func WriteFile(t testing.TB, root, relative, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(relative))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Exists reports whether path exists without following a final symlink.
func Exists(t testing.TB, path string) bool {
	t.Helper()

	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("lstat %s: %v", path, err)
	}
	return false
}
