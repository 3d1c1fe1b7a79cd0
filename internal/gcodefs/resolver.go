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

// Resolver maps root-relative filenames to absolute paths.
type Resolver struct {
	root string
}

// NewResolver returns a resolver anchored at root.
func NewResolver(root string) (*Resolver, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrInvalidPath, "resolver", "init", "gcode root is empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidPath, "resolver", "init", root, err)
	}
	abs = filepath.Clean(abs)
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute gcode root.
func (r *Resolver) Root() string {
	return r.root
}

// Join maps relative onto the root without touching the filesystem.
func (r *Resolver) Join(relative string) (string, error) {
	cleaned, err := clean(relative)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.root, filepath.FromSlash(cleaned)), nil
}

// Resolve maps relative onto the root and verifies the target exists. Links
// are followed and the final target must still lie under the root.
func (r *Resolver) Resolve(relative string) (string, error) {
	abs, err := r.Join(relative)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "", "", relative, nil)
		}
		return "", services.Wrap(services.ErrFilesystem, "resolver", "stat", relative, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "resolver", "eval symlinks", relative, err)
	}
	if rel, err := filepath.Rel(r.root, resolved); err != nil || escapes(rel) {
		return "", services.Wrap(services.ErrInvalidPath, "resolver", "", relative+" links outside the gcode root", err)
	}
	return abs, nil
}

// Relative maps an absolute path under the root back to a slash path.
func (r *Resolver) Relative(absolute string) (string, error) {
	rel, err := filepath.Rel(r.root, filepath.Clean(absolute))
	if err != nil || escapes(rel) || rel == "." {
		return "", services.Wrap(services.ErrInvalidPath, "resolver", "relative", absolute, err)
	}
	return filepath.ToSlash(rel), nil
}

// Contains reports whether relative names a path strictly inside dir. Both
// arguments are root-relative.
func (r *Resolver) Contains(dir, relative string) bool {
	cleanDir, err := clean(dir)
	if err != nil {
		return false
	}
	cleanRel, err := clean(relative)
	if err != nil {
		return false
	}
	return strings.HasPrefix(cleanRel, cleanDir+"/")
}

func clean(relative string) (string, error) {
	trimmed := strings.TrimSpace(relative)
	if trimmed == "" {
		return "", services.Wrap(services.ErrInvalidPath, "resolver", "", "empty path", nil)
	}
	slashed := filepath.ToSlash(trimmed)
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(trimmed) {
		return "", services.Wrap(services.ErrInvalidPath, "resolver", "", relative+" is absolute", nil)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || escapes(cleaned) {
		return "", services.Wrap(services.ErrInvalidPath, "resolver", "", relative+" escapes the gcode root", nil)
	}
	return cleaned, nil
}

func escapes(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".." || strings.HasPrefix(rel, "../")
}
