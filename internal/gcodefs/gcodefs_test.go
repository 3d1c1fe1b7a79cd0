package gcodefs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"helixprint/internal/gcodefs"
	"helixprint/internal/services"
)

func newResolver(t *testing.T) (*gcodefs.Resolver, string) {
	t.Helper()
	root := t.TempDir()
	resolver, err := gcodefs.NewResolver(root)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver, resolver.Root()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveExistingAndMissing(t *testing.T) {
	resolver, root := newResolver(t)
	writeFile(t, filepath.Join(root, "sub", "benchy.gcode"), "G28")

	abs, err := resolver.Resolve("sub/benchy.gcode")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if abs != filepath.Join(root, "sub", "benchy.gcode") {
		t.Fatalf("unexpected path %q", abs)
	}

	_, err = resolver.Resolve("missing.gcode")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	resolver, _ := newResolver(t)
	for _, input := range []string{"../etc/passwd", "/etc/passwd", "a/../../b", "", "."} {
		if _, err := resolver.Resolve(input); !errors.Is(err, services.ErrInvalidPath) {
			t.Fatalf("Resolve(%q) expected invalid path, got %v", input, err)
		}
	}
	if _, err := resolver.Join("a/../b.gcode"); err != nil {
		t.Fatalf("expected in-root dot segments to be accepted: %v", err)
	}
}

func TestResolveRejectsLinkOutsideRoot(t *testing.T) {
	resolver, root := newResolver(t)
	outside := filepath.Join(t.TempDir(), "secret.gcode")
	writeFile(t, outside, "SECRET")
	if err := os.MkdirAll(filepath.Join(root, ".helix_temp"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, ".helix_temp", "evil.gcode")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := resolver.Resolve(".helix_temp/evil.gcode"); !errors.Is(err, services.ErrInvalidPath) {
		t.Fatalf("expected invalid path for escaping link, got %v", err)
	}

	writeFile(t, filepath.Join(root, "benchy.gcode"), "G28")
	if err := os.Symlink(filepath.Join(root, "benchy.gcode"), filepath.Join(root, "alias.gcode")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	abs, err := resolver.Resolve("alias.gcode")
	if err != nil {
		t.Fatalf("in-root link should resolve: %v", err)
	}
	if abs != filepath.Join(root, "alias.gcode") {
		t.Fatalf("unexpected path %q", abs)
	}
}

func TestRelativeAndContains(t *testing.T) {
	resolver, root := newResolver(t)
	rel, err := resolver.Relative(filepath.Join(root, ".helix_temp", "mod.gcode"))
	if err != nil || rel != ".helix_temp/mod.gcode" {
		t.Fatalf("Relative = %q, %v", rel, err)
	}
	if _, err := resolver.Relative(filepath.Dir(root)); err == nil {
		t.Fatal("expected error for path outside root")
	}
	if !resolver.Contains(".helix_temp", ".helix_temp/mod.gcode") {
		t.Fatal("expected temp file inside temp dir")
	}
	if resolver.Contains(".helix_temp", ".helix_tempx/mod.gcode") {
		t.Fatal("prefix sibling must not count as inside")
	}
	if resolver.Contains(".helix_temp", ".helix_temp") {
		t.Fatal("directory itself must not count as inside")
	}
}

func TestPublishCreatesRelativeLink(t *testing.T) {
	resolver, root := newResolver(t)
	target := filepath.Join(root, ".helix_temp", "mod_benchy.gcode")
	writeFile(t, target, "modified")

	publisher := gcodefs.NewPublisher(resolver, ".helix_print")
	public, err := publisher.Publish("benchy.gcode", target)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if public != ".helix_print/benchy.gcode" {
		t.Fatalf("unexpected public path %q", public)
	}
	linkPath := filepath.Join(root, ".helix_print", "benchy.gcode")
	raw, err := os.Readlink(linkPath)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if filepath.IsAbs(raw) {
		t.Fatalf("expected relative link target, got %q", raw)
	}
	data, err := os.ReadFile(linkPath)
	if err != nil || string(data) != "modified" {
		t.Fatalf("link does not resolve to target: %q, %v", data, err)
	}
}

func TestPublishReplacesOccupants(t *testing.T) {
	resolver, root := newResolver(t)
	publisher := gcodefs.NewPublisher(resolver, ".helix_print")
	linkPath := filepath.Join(root, ".helix_print", "benchy.gcode")
	target := filepath.Join(root, ".helix_temp", "new.gcode")
	writeFile(t, target, "new")

	cases := map[string]func(){
		"regular file": func() { writeFile(t, linkPath, "stale") },
		"dangling link": func() {
			_ = os.MkdirAll(filepath.Dir(linkPath), 0o755)
			if err := os.Symlink(filepath.Join(root, "gone.gcode"), linkPath); err != nil {
				t.Fatalf("symlink: %v", err)
			}
		},
		"live link": func() {
			other := filepath.Join(root, "other.gcode")
			writeFile(t, other, "other")
			if err := os.Symlink(other, linkPath); err != nil {
				t.Fatalf("symlink: %v", err)
			}
		},
	}
	for name, setup := range cases {
		_ = os.Remove(linkPath)
		setup()
		if _, err := publisher.Publish("benchy.gcode", target); err != nil {
			t.Fatalf("%s: Publish: %v", name, err)
		}
		data, err := os.ReadFile(linkPath)
		if err != nil || string(data) != "new" {
			t.Fatalf("%s: expected link to new target, got %q (%v)", name, data, err)
		}
	}
}

func TestPublishRejectsBadBasename(t *testing.T) {
	resolver, _ := newResolver(t)
	publisher := gcodefs.NewPublisher(resolver, ".helix_print")
	for _, name := range []string{"", "..", "a/b.gcode"} {
		if _, err := publisher.Publish(name, "/tmp/x"); !errors.Is(err, services.ErrInvalidPath) {
			t.Fatalf("Publish(%q) expected invalid path, got %v", name, err)
		}
	}
}

func TestUnpublishChecksTarget(t *testing.T) {
	resolver, root := newResolver(t)
	publisher := gcodefs.NewPublisher(resolver, ".helix_print")
	first := filepath.Join(root, ".helix_temp", "first.gcode")
	second := filepath.Join(root, ".helix_temp", "second.gcode")
	writeFile(t, first, "1")
	writeFile(t, second, "2")

	public, err := publisher.Publish("benchy.gcode", second)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	removed, err := publisher.Unpublish(public, first)
	if err != nil || removed {
		t.Fatalf("stale unpublish removed=%v err=%v", removed, err)
	}
	removed, err = publisher.Unpublish(public, second)
	if err != nil || !removed {
		t.Fatalf("unpublish removed=%v err=%v", removed, err)
	}
	removed, err = publisher.Unpublish(public, second)
	if err != nil || removed {
		t.Fatalf("second unpublish removed=%v err=%v", removed, err)
	}
}

func TestSweepRemovesDanglingLinksAndExpiredTemps(t *testing.T) {
	resolver, root := newResolver(t)
	publisher := gcodefs.NewPublisher(resolver, ".helix_print")

	live := filepath.Join(root, ".helix_temp", "live.gcode")
	orphan := filepath.Join(root, ".helix_temp", "orphan.gcode")
	fresh := filepath.Join(root, ".helix_temp", "fresh.gcode")
	gone := filepath.Join(root, ".helix_temp", "gone.gcode")
	for _, p := range []string{live, orphan, fresh, gone} {
		writeFile(t, p, "x")
	}
	if _, err := publisher.Publish("live.gcode", live); err != nil {
		t.Fatalf("Publish live: %v", err)
	}
	if _, err := publisher.Publish("gone.gcode", gone); err != nil {
		t.Fatalf("Publish gone: %v", err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove: %v", err)
	}

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	for _, p := range []string{live, orphan} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	result, err := publisher.Sweep(".helix_temp", now, 24*time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(result.Links) != 1 || result.Links[0] != ".helix_print/gone.gcode" {
		t.Fatalf("unexpected removed links %v", result.Links)
	}
	if len(result.Temps) != 1 || result.Temps[0] != ".helix_temp/orphan.gcode" {
		t.Fatalf("unexpected removed temps %v", result.Temps)
	}
	for _, p := range []string{live, fresh} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
