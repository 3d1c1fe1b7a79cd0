package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.gcode")
	dst := filepath.Join(dir, ".helix_temp", "dst.gcode")

	content := []byte("G28\nG1 X10\n")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Fatalf("expected part file removed, got %v", err)
	}
}

func TestCopyVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.gcode"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyVerified_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := CopyVerified(dir, filepath.Join(t.TempDir(), "dst.gcode")); err == nil {
		t.Fatal("expected error for directory source")
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gcode")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := WriteAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}
