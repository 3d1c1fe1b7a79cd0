// Package config loads, normalizes, and validates helixprint configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOONRAKER_API_KEY. The [helix] table is kept as a loosely typed Section so
// the print engine can read it through the narrow ConfigSource view
// (Get/GetInt/GetBool) instead of depending on this package.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
