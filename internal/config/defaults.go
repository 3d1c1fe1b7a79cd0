package config

const (
	defaultConfigPath            = "~/.config/helixprint/config.toml"
	defaultGcodeRoot             = "~/printer_data/gcodes"
	defaultDataDir               = "~/.local/share/helixprint"
	defaultAPIBind               = "127.0.0.1:7130"
	defaultMoonrakerURL          = "ws://127.0.0.1:7125/websocket"
	defaultMoonrakerTimeout      = 10
	defaultMoonrakerReconnect    = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultHelixEnabled          = true
	defaultHelixTempDir          = ".helix_temp"
	defaultHelixSymlinkDir       = ".helix_print"
	defaultHelixCleanupDelaySecs = 86400
	defaultNtfyRequestTimeout    = 10
)

// Helix option keys recognized in the [helix] table.
const (
	HelixEnabled      = "enabled"
	HelixTempDir      = "temp_dir"
	HelixSymlinkDir   = "symlink_dir"
	HelixCleanupDelay = "cleanup_delay"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			GcodeRoot: defaultGcodeRoot,
			DataDir:   defaultDataDir,
			APIBind:   defaultAPIBind,
		},
		Helix: defaultHelixSection(),
		Moonraker: Moonraker{
			URL:            defaultMoonrakerURL,
			RequestTimeout: defaultMoonrakerTimeout,
			ReconnectDelay: defaultMoonrakerReconnect,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultHelixSection() Section {
	return Section{
		HelixEnabled:      defaultHelixEnabled,
		HelixTempDir:      defaultHelixTempDir,
		HelixSymlinkDir:   defaultHelixSymlinkDir,
		HelixCleanupDelay: int64(defaultHelixCleanupDelaySecs),
	}
}
