package helix

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Version reported by the status endpoint.
const Version = "1.0.0"

// maxCleanupDelaySecs is the longest delay a time.Duration can hold.
const maxCleanupDelaySecs = math.MaxInt64 / int64(time.Second)

// Settings holds the engine options read from the [helix] table.
type Settings struct {
	Enabled      bool
	TempDir      string
	SymlinkDir   string
	CleanupDelay time.Duration
}

// LoadSettings reads engine options from src, applying defaults.
func LoadSettings(src ConfigSource) (Settings, error) {
	s := Settings{
		Enabled:      true,
		TempDir:      ".helix_temp",
		SymlinkDir:   ".helix_print",
		CleanupDelay: 86400 * time.Second,
	}
	if src == nil {
		return s, nil
	}
	enabled, err := src.GetBool("enabled", s.Enabled)
	if err != nil {
		return s, fmt.Errorf("helix settings: %w", err)
	}
	delay, err := src.GetInt("cleanup_delay", int(s.CleanupDelay/time.Second))
	if err != nil {
		return s, fmt.Errorf("helix settings: %w", err)
	}
	if delay < 0 {
		return s, fmt.Errorf("helix settings: cleanup_delay must not be negative")
	}
	if int64(delay) > maxCleanupDelaySecs {
		delay = int(maxCleanupDelaySecs)
	}
	s.Enabled = enabled
	s.CleanupDelay = time.Duration(delay) * time.Second
	s.TempDir = strings.Trim(src.Get("temp_dir", s.TempDir), "/")
	s.SymlinkDir = strings.Trim(src.Get("symlink_dir", s.SymlinkDir), "/")
	return s, nil
}
