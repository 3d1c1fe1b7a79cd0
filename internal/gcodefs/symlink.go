package gcodefs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"helixprint/internal/services"
)

// Publisher exposes files under their original basename inside a dedicated
// symlink directory.
type Publisher struct {
	resolver *Resolver
	dir      string
}

// NewPublisher returns a publisher writing links into dir (root-relative).
func NewPublisher(resolver *Resolver, dir string) *Publisher {
	return &Publisher{resolver: resolver, dir: strings.Trim(filepath.ToSlash(dir), "/")}
}

// Dir returns the root-relative symlink directory.
func (p *Publisher) Dir() string {
	return p.dir
}

// Publish creates dir/basename pointing at target, replacing any occupant.
// The returned path is root-relative.
func (p *Publisher) Publish(basename, target string) (string, error) {
	if basename == "" || basename == "." || basename == ".." || strings.ContainsAny(basename, `/\`) {
		return "", services.Wrap(services.ErrInvalidPath, "symlink", "publish", "bad basename "+basename, nil)
	}
	dirAbs, err := p.resolver.Join(p.dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirAbs, 0o755); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "symlink", "mkdir", p.dir, err)
	}

	linkPath := filepath.Join(dirAbs, basename)
	if info, err := os.Lstat(linkPath); err == nil {
		if info.IsDir() {
			return "", services.Wrap(services.ErrFilesystem, "symlink", "publish", linkPath+" is a directory", nil)
		}
		if err := os.Remove(linkPath); err != nil {
			return "", services.Wrap(services.ErrFilesystem, "symlink", "remove stale", linkPath, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", services.Wrap(services.ErrFilesystem, "symlink", "lstat", linkPath, err)
	}

	linkTarget, err := filepath.Rel(dirAbs, target)
	if err != nil {
		linkTarget = target
	}
	if err := os.Symlink(linkTarget, linkPath); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "symlink", "create", linkPath, err)
	}
	return path.Join(p.dir, basename), nil
}

// Unpublish removes the link at public only while it still points at
// expectedTarget. It reports whether a link was removed.
func (p *Publisher) Unpublish(public, expectedTarget string) (bool, error) {
	linkPath, err := p.resolver.Join(public)
	if err != nil {
		return false, err
	}
	target, err := readLink(linkPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, services.Wrap(services.ErrFilesystem, "symlink", "readlink", public, err)
	}
	if target == "" || filepath.Clean(target) != filepath.Clean(expectedTarget) {
		return false, nil
	}
	if err := os.Remove(linkPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, services.Wrap(services.ErrFilesystem, "symlink", "remove", public, err)
	}
	return true, nil
}

// readLink returns the absolute target of linkPath, or "" when linkPath is
// not a symlink.
func readLink(linkPath string) (string, error) {
	info, err := os.Lstat(linkPath)
	if err != nil {
		return "", err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return "", nil
	}
	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	return filepath.Clean(target), nil
}
