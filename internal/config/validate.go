package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateHelix(); err != nil {
		return err
	}
	if err := c.validateMoonraker(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.GcodeRoot == "" {
		return errors.New("paths.gcode_root must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateHelix() error {
	if _, err := c.Helix.GetBool(HelixEnabled, defaultHelixEnabled); err != nil {
		return fmt.Errorf("helix.%w", err)
	}
	delay, err := c.Helix.GetInt(HelixCleanupDelay, defaultHelixCleanupDelaySecs)
	if err != nil {
		return fmt.Errorf("helix.%w", err)
	}
	if delay < 0 {
		return errors.New("helix.cleanup_delay must be zero or positive")
	}
	tempDir := c.Helix.Get(HelixTempDir, defaultHelixTempDir)
	symlinkDir := c.Helix.Get(HelixSymlinkDir, defaultHelixSymlinkDir)
	if err := validateSubdir("helix.temp_dir", tempDir); err != nil {
		return err
	}
	if err := validateSubdir("helix.symlink_dir", symlinkDir); err != nil {
		return err
	}
	if filepath.Clean(tempDir) == filepath.Clean(symlinkDir) {
		return errors.New("helix.temp_dir and helix.symlink_dir must differ")
	}
	return nil
}

func validateSubdir(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", key)
	}
	if filepath.IsAbs(value) {
		return fmt.Errorf("%s must be relative to paths.gcode_root", key)
	}
	cleaned := filepath.Clean(value)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("%s must stay inside paths.gcode_root", key)
	}
	return nil
}

func (c *Config) validateMoonraker() error {
	parsed, err := url.Parse(c.Moonraker.URL)
	if err != nil {
		return fmt.Errorf("moonraker.url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("moonraker.url must use ws:// or wss://, got %q", c.Moonraker.URL)
	}
	if parsed.Host == "" {
		return errors.New("moonraker.url must include a host")
	}
	if err := ensurePositiveMap(map[string]int{
		"moonraker.request_timeout": c.Moonraker.RequestTimeout,
		"moonraker.reconnect_delay": c.Moonraker.ReconnectDelay,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" {
		parsed, err := url.Parse(c.Notifications.NtfyTopic)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
		}
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
