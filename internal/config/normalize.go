package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHelix()
	c.normalizeMoonraker()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.GcodeRoot, err = expandPath(c.Paths.GcodeRoot); err != nil {
		return fmt.Errorf("paths.gcode_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("HELIXPRINT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeHelix() {
	if c.Helix == nil {
		c.Helix = Section{}
	}
	for key, value := range defaultHelixSection() {
		if _, ok := c.Helix[key]; !ok {
			c.Helix[key] = value
		}
	}
	for _, key := range []string{HelixTempDir, HelixSymlinkDir} {
		if v, ok := c.Helix[key].(string); ok {
			c.Helix[key] = strings.Trim(strings.TrimSpace(v), "/")
		}
	}
}

func (c *Config) normalizeMoonraker() {
	c.Moonraker.URL = strings.TrimSpace(c.Moonraker.URL)
	if c.Moonraker.URL == "" {
		c.Moonraker.URL = defaultMoonrakerURL
	}
	if c.Moonraker.APIKey == "" {
		if value, ok := os.LookupEnv("MOONRAKER_API_KEY"); ok {
			c.Moonraker.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Moonraker.RequestTimeout == 0 {
		c.Moonraker.RequestTimeout = defaultMoonrakerTimeout
	}
	if c.Moonraker.ReconnectDelay == 0 {
		c.Moonraker.ReconnectDelay = defaultMoonrakerReconnect
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("HELIXPRINT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
