package gcodefs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"helixprint/internal/services"
)

// SweepResult lists root-relative paths removed by Sweep.
type SweepResult struct {
	Links []string
	Temps []string
}

// Sweep removes dangling links from the publisher's directory and temp files
// in tempDir older than maxAge that no remaining link references.
func (p *Publisher) Sweep(tempDir string, now time.Time, maxAge time.Duration) (SweepResult, error) {
	var result SweepResult

	dirAbs, err := p.resolver.Join(p.dir)
	if err != nil {
		return result, err
	}
	referenced := map[string]struct{}{}
	entries, err := os.ReadDir(dirAbs)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, services.Wrap(services.ErrFilesystem, "sweep", "read symlink dir", p.dir, err)
	}
	for _, entry := range entries {
		linkPath := filepath.Join(dirAbs, entry.Name())
		target, err := readLink(linkPath)
		if err != nil || target == "" {
			continue
		}
		if _, err := os.Stat(target); err != nil {
			if os.Remove(linkPath) == nil {
				result.Links = append(result.Links, path.Join(p.dir, entry.Name()))
			}
			continue
		}
		referenced[target] = struct{}{}
	}

	tempAbs, err := p.resolver.Join(tempDir)
	if err != nil {
		return result, err
	}
	temps, err := os.ReadDir(tempAbs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return result, services.Wrap(services.ErrFilesystem, "sweep", "read temp dir", tempDir, err)
	}
	for _, entry := range temps {
		if !entry.Type().IsRegular() {
			continue
		}
		full := filepath.Join(tempAbs, entry.Name())
		if _, ok := referenced[full]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if os.Remove(full) == nil {
			result.Temps = append(result.Temps, path.Join(filepath.ToSlash(tempDir), entry.Name()))
		}
	}
	return result, nil
}
