package preflight

import (
	"context"

	"helixprint/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// The Moonraker check is optional: the daemon reconnects on its own.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Gcode root", cfg.Paths.GcodeRoot))

	enabled, err := cfg.Helix.GetBool(config.HelixEnabled, true)
	if err == nil && enabled {
		tempDir := cfg.Helix.Get(config.HelixTempDir, "")
		symlinkDir := cfg.Helix.Get(config.HelixSymlinkDir, "")
		results = append(results,
			CheckManagedDir("Temp directory", cfg.Paths.GcodeRoot, tempDir),
			CheckManagedDir("Symlink directory", cfg.Paths.GcodeRoot, symlinkDir),
		)
	}

	host := CheckMoonraker(ctx, cfg.Moonraker.URL, cfg.Moonraker.APIKey)
	host.Optional = true
	results = append(results, host)
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
